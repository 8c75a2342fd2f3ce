// Package events defines the typed session event contract delivered to
// observers.
//
// Event kinds are grouped under the session namespace:
//
//   - StatusChanged (session.status): the session status moved to a new
//     value. Emitted only on change.
//   - TranscriptAdded (session.transcript): a user or agent utterance was
//     appended to the transcript.
//   - ThoughtAdded (session.thought): a diagnostic line describing what the
//     agent is doing.
//   - ListeningChanged (session.control): continuous listening was switched
//     on or off.
package events
