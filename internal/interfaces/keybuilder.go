package interfaces

//go:generate mockgen -package=mock -source=keybuilder.go -destination=mock/keybuilder.go

// KeyBuilder namespaces logical cache keys into store keys
type KeyBuilder interface {
	Build(group, key string) (string, error)
}
