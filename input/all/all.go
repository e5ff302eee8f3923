// Package all imports all backends implemented by the input package.
package all

import (
	_ "github.com/noriah/curtain/input/ffmpeg"
	_ "github.com/noriah/curtain/input/parec"
	_ "github.com/noriah/curtain/input/wavfile"
)
