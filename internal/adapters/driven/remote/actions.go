package remote

// Wire action names.
const (
	ActionCheckFiles          = "stagesync_check_files"
	ActionRunStage1           = "stagesync_run_stage1"
	ActionRunStage2           = "stagesync_run_stage2"
	ActionRunStage3Batch      = "stagesync_run_stage3_batch"
	ActionGetProgress         = "stagesync_get_progress"
	ActionGetDetailedProgress = "stagesync_get_detailed_progress"
	ActionManifestPreview     = "stagesync_manifest_preview"
	ActionDeleteFile          = "stagesync_delete_file"
	ActionClearStage3Status   = "stagesync_clear_stage3_status"
	ActionStopSync            = "stagesync_stop_sync"
)

// actionClasses maps file actions to their class; everything else is sync.
var actionClasses = map[string]ActionClass{
	ActionCheckFiles:        ClassFiles,
	ActionManifestPreview:   ClassFiles,
	ActionDeleteFile:        ClassFiles,
	ActionClearStage3Status: ClassFiles,
}

// ClassOf returns the token class for action.
func ClassOf(action string) ActionClass {
	if class, ok := actionClasses[action]; ok {
		return class
	}
	return ClassSync
}
