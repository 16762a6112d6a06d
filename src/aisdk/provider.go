package aisdk

import (
	"context"
)

// ModelClient represents a client for a specific model
type ModelClient interface {
	Generate(ctx context.Context, req *GenerateRequest) (*Response, error)
	ModelName() string
}
