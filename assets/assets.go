// Package assets holds the built-in shaders, used when the configuration names no shader file.
package assets

import _ "embed"

// QuadShader draws textured, instanced quads. It expects the vertex, instance and camera
// includes, the camera uniform at @group(0) and the texture and sampler at @group(1).
//
//go:embed shaders/quad.wgsl
var QuadShader string

// OverlayShader draws a clip-space panel with its texture and sampler at @group(0).
//
//go:embed shaders/overlay.wgsl
var OverlayShader string
