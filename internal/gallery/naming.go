package gallery

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Upload filenames embed the creation instant in the display's local zone,
// fixed at UTC+9 regardless of where the server runs.
var uploadZone = time.FixedZone("UTC+9", 9*60*60)

// uploadFilename formats t as paint-YYYYMMDD_HHMMSS_mmm.png. Collisions
// within the same millisecond are resolved by uniqueFilename.
func uploadFilename(t time.Time) string {
	t = t.In(uploadZone)
	return fmt.Sprintf("paint-%s_%03d.png", t.Format("20060102_150405"), t.Nanosecond()/1000000)
}

// uniqueFilename returns a name guaranteed not to collide with an existing
// entry in dir, probing base, base-1.ext, base-2.ext, ... monotonically.
// "file exists" is never an error here, only unexpected filesystem failures.
func uniqueFilename(base, dir string) (string, error) {
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	name := base
	for counter := 1; ; counter++ {
		_, err := os.Stat(filepath.Join(dir, name))
		if errors.Is(err, fs.ErrNotExist) {
			return name, nil
		}
		if err != nil {
			return "", err
		}
		name = fmt.Sprintf("%s-%d%s", stem, counter, ext)
	}
}
