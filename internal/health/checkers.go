package health

import (
	"context"
	"errors"
	"os"

	"github.com/voxhire/voxhire/internal/interview"
)

// StoreChecker probes the interview store with a lookup for a well-known
// nonexistent ID. A healthy store answers "not found" without error.
func StoreChecker(store interview.Store) Checker {
	return Checker{
		Name: "store",
		Check: func(ctx context.Context) error {
			if store == nil {
				return errors.New("no store configured")
			}
			_, err := store.Get(ctx, "healthcheck-probe")
			return err
		},
	}
}

// OutputDirChecker verifies the artifact directory exists and is a directory.
func OutputDirChecker(dir string) Checker {
	return Checker{
		Name: "output_dir",
		Check: func(context.Context) error {
			info, err := os.Stat(dir)
			if err != nil {
				return err
			}
			if !info.IsDir() {
				return errors.New("not a directory")
			}
			return nil
		},
	}
}
