package scene

import (
	"github.com/taigrr/trapeze/pkg/models"
	"github.com/taigrr/trapeze/pkg/render"
)

// RenderObject pairs a model and a texture with a transform.
// Models and textures may be shared between objects.
type RenderObject struct {
	Texture   *render.Texture
	Model     *models.Model
	Transform *Transform
}

// NewRenderObject creates a render object. A nil transform becomes Empty(nil).
func NewRenderObject(tex *render.Texture, model *models.Model, transform *Transform) *RenderObject {
	if transform == nil {
		transform = Empty(nil)
	}
	return &RenderObject{
		Texture:   tex,
		Model:     model,
		Transform: transform,
	}
}
