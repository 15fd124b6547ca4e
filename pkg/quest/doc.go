// Package quest provides the public API for micro-quest sessions.
//
// A session is a single-writer state machine around one conversation with
// the backend game master: commands are serialized through a mailbox,
// processed strictly one at a time by a background actor, and the
// resulting updates are applied atomically to session state that any
// number of readers may snapshot concurrently.
//
// Construction goes through the Builder:
//
//	character := schema.NewCharacterBuilder("Jim").WithClass("Fighter").Build()
//	handle, err := quest.NewBuilder(character).WithAPIKey(key).Build(ctx)
//	if err != nil { ... }
//	defer handle.Close()
//
//	if err := handle.Start(ctx); err != nil { ... }
//	if err := handle.Input(ctx, "go north"); err != nil { ... }
//	snapshot := handle.Snapshot()
package quest
