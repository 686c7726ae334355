// Package session drives the import/capture → recognize → display workflow
// for one screen session.
//
// A Controller owns the session's State and is the only thing that mutates
// it. Everything with a side effect outside the process (the permission
// prompt, the gallery picker, the camera, the recognizer and user-facing
// alerts) is a collaborator interface supplied through Deps, so the
// controller can be exercised entirely with fakes.
//
// # Lifecycle
//
// Start performs the one-time camera permission check and constructs the
// Controller with its outcome; New constructs one from a known outcome. The
// permission is never re-checked during the session.
//
// # States
//
//	Idle ──select──▶ Recognizing ──done──▶ ResultReady ──select──▶ Recognizing …
//
// A failed recognition still ends in ResultReady, with an empty result; the
// selected image stays set.
//
// # Overlapping Requests
//
// At most one selection flow runs at a time. ImportFromGallery and
// CaptureFromCamera return ErrBusy, without touching any collaborator, while
// another flow (picking, capturing or recognizing) is in progress.
//
// # Errors
//
// Every failure is reported to the user through the Notifier where the user
// needs to know, then returned wrapped around one of the sentinel errors so
// callers can branch with errors.Is. ErrUserCancelled is not a failure: the
// state is left exactly as it was and nothing is shown.
package session
