package engine

// The built-in program draws position/texcoord meshes with their texture
// coordinates as colour.
const builtinVertexShader = `#version 330 core
layout (location = 0) in vec3 in_position;
layout (location = 1) in vec2 in_texcoord;

out vec2 frag_texcoord;

void main() {
	frag_texcoord = in_texcoord;
	gl_Position = vec4(in_position * 0.1, 1.0);
}
`

const builtinFragmentShader = `#version 330 core
in vec2 frag_texcoord;
out vec4 out_colour;

void main() {
	out_colour = vec4(frag_texcoord, 0.5, 1.0);
}
`
