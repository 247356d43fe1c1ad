package catalog

import "errors"

var (
	// ErrInvalidCatalog возвращается, когда набор услуг не прошёл проверку
	ErrInvalidCatalog = errors.New("catalog: invalid service catalog")

	// ErrDuplicateKey возвращается, когда ключ или алиас встречается дважды
	ErrDuplicateKey = errors.New("catalog: duplicate service key")
)
