package store

//go:generate mockgen -destination=mock_persistence.go -package=store tazq/internal/store Persistence
