package scan

import "github.com/azuline/rose-sub000/internal/idgen"

func newID() string {
	return idgen.New().String()
}
