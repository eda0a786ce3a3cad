package placeholder

import (
	"fmt"

	digest "github.com/opencontainers/go-digest"

	"github.com/cruciblehq/crecipe/internal/paths"
)

// Allocates the backing file for a file-based placeholder. In
// real runs it defers to the registry's random temp-file allocation; in
// simulation mode it derives a stable name from the step name and
// identity so that simulation runs are bit-reproducible across repeated
// invocations of the same test case.
func tempPath(reg *paths.Registry, sim bool, stepName string, id Identity) (string, error) {
	if !sim {
		return reg.CreateTemp(paths.RootTmpBase, id.Method+"-*")
	}

	name := digest.FromString(stepName + "|" + id.Key()).Encoded()[:16]
	path, err := reg.Join(paths.RootTmpBase, fmt.Sprintf("sim-%s-%s", id.Method, name))
	if err != nil {
		return "", err
	}
	if err := reg.WriteFile(path, nil); err != nil {
		return "", err
	}
	return path, nil
}
