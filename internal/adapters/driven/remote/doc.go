// Package remote provides the HTTP adapter for the remote sync job.
//
// Every action is a form-encoded POST to a single endpoint carrying the
// action name and the token of the action's class. Responses use the
// envelope {success, data | error}. Client implements driven.RemoteJobClient
// and API layers the typed driven.SyncAPI on top of it.
package remote
