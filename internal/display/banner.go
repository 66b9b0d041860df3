package display

import (
	"fmt"
	"io"

	"github.com/backmassage/galleryscan/internal/logging"
)

// PrintBanner writes the ASCII art banner to w; bold magenta when colors are
// enabled. The CLI passes stderr so stdout stays clean for the manifest.
func PrintBanner(w io.Writer) {
	fmt.Fprint(w, logging.Accent(bannerArt))
}

const bannerArt = `              _ _
  __ _  __ _ | | | ___ _ __ _   _ ___  ___ __ _ _ __
 / _`+"`"+` |/ _`+"`"+` || | |/ _ \ '__| | | / __|/ __/ _`+"`"+` | '_ \
| (_| | (_| || | |  __/ |  | |_| \__ \ (_| (_| | | | |
 \__, |\__,_||_|_|\___|_|   \__, |___/\___\__,_|_| |_|
 |___/                      |___/
`
