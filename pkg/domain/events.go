package domain

// FieldConfirmed is emitted after a field has been durably persisted.
//
// Projections (SSE streams, secondary memory layers, knowledge graphs)
// subscribe to these events as read-only consumers; the ProfileStore remains
// the single source of truth and no subscriber may write back.
type FieldConfirmed struct {
	Field   ProfileField `json:"field"`
	Session *Session     `json:"session"`
}

// FieldObserver receives FieldConfirmed events. Implementations must not
// block: slow consumers are expected to buffer or drop.
type FieldObserver func(FieldConfirmed)
