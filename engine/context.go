package engine

import (
	"github.com/lixenwraith/vi-runtime/audio"
	"github.com/lixenwraith/vi-runtime/ecs"
	"github.com/lixenwraith/vi-runtime/event"
	"github.com/lixenwraith/vi-runtime/log"
	"github.com/lixenwraith/vi-runtime/render"
	"github.com/lixenwraith/vi-runtime/resource"
	"github.com/lixenwraith/vi-runtime/scene"
	"github.com/lixenwraith/vi-runtime/script"
	"github.com/lixenwraith/vi-runtime/status"
	"github.com/lixenwraith/vi-runtime/system"
)

// Context is the shared view of the runtime handed to every scene, system, and binding
// Built once by New and never replaced; it owns nothing, the Game does
type Context struct {
	World      *ecs.World
	Dispatcher *event.Dispatcher
	Renderer   *render.Renderer
	Resources  *resource.Registry
	Scenes     *scene.Manager[*Context]
	Systems    *system.Manager[*Context]
	Scripts    *script.Bridge
	Audio      *audio.Player
	Status     *status.Registry
	Logger     log.Logger
}

// Backend is shorthand for the renderer's drawing surface
func (c *Context) Backend() render.Backend {
	return c.Renderer.Backend()
}

// ChangeScene switches the active scene and announces it
// Panics on an unknown name
func (c *Context) ChangeScene(name string) {
	c.Scenes.ChangeScene(name)
	c.Status.Strings.Get(status.KeyActiveScene).Store(name)
	c.Dispatcher.Trigger(event.Event{Type: event.EventSceneChanged, Payload: name})
}

// RequestClose asks the loop to stop after the current iteration
func (c *Context) RequestClose() {
	c.Dispatcher.Trigger(event.Event{Type: event.EventCloseGame})
}
