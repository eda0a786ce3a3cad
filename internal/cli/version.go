package cli

import (
	"context"
	"fmt"

	"github.com/cruciblehq/crecipe/internal"
)

// Implements `crecipe version`.
type VersionCmd struct{}

func (c *VersionCmd) Run(ctx context.Context) error {
	fmt.Println(internal.VersionString())
	return nil
}
