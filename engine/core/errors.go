package core

import (
	"errors"
)

var (
	ErrBufferUpload           = errors.New("buffer upload failed")
	ErrEmptyVertexData        = errors.New("vertex data is empty or not a multiple of the vertex size")
	ErrEmptyIndexData         = errors.New("index data is empty")
	ErrInvalidGeometryID      = errors.New("invalid geometry id")
	ErrGeometrySlotsExhausted = errors.New("no free geometry slot")
	ErrInvalidMeshFile        = errors.New("invalid mesh file")
)
