package ports

import (
	"io"

	"go.trai.ch/skybox/internal/core/domain"
)

// Previewer renders a decoded resource as an image.
//
//go:generate go run go.uber.org/mock/mockgen -source=previewer.go -destination=mocks/mock_previewer.go -package=mocks
type Previewer interface {
	// Render writes a preview of res, scaled so each face is size pixels wide.
	Render(w io.Writer, res domain.Resource, size int) error
}
