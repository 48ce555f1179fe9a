// Package session stores reward sessions and their placement workspaces.
//
// Manager keeps sessions in memory behind an RWMutex, keyed case-insensitively
// by a 4-character hex ID. When built with NewManagerWithPersistence it also
// writes every session through a SessionPersistence, and FilePersistence keeps
// one JSON file per session holding the config ID, the engine state and the
// puzzle snapshot.
//
// Usage:
//
//	persistence, err := session.NewFilePersistence("sessions", configManager)
//	if err != nil {
//		log.Fatal(err)
//	}
//	manager := session.NewManagerWithPersistence(persistence)
//	if err := manager.LoadPersistedSessions(); err != nil {
//		log.Fatal(err)
//	}
//
//	sess, err := manager.Create("", configManager.GetDefault())
//
// Engine options given to the manager or the persistence layer, such as a
// fixed roller in tests, apply to every engine they build.
package session
