package media

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

const (
	// left channel of a stereo recorder track
	LeftChannelFilter = "pan=mono|c0=c0"
	VADSampleRate     = 16000
	PreviewWidth      = 320
)

var quietArgs = []string{"-hide_banner", "-loglevel", "error"}

// formats seconds for ffmpeg position arguments
func seconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

// mono 16 kHz PCM for the voice activity detector
func VADAudio(inputPath, outputPath string) *ffmpeg.Stream {
	return ffmpeg.Input(inputPath).
		Output(outputPath, ffmpeg.KwArgs{
			"af":  LeftChannelFilter,
			"ar":  VADSampleRate,
			"c:a": "pcm_s16le",
			"vn":  "",
		}).
		GlobalArgs(quietArgs...).
		OverWriteOutput()
}

// compressed mono audio for the transcription APIs
func TranscriptionAudio(inputPath, outputPath string) *ffmpeg.Stream {
	return ffmpeg.Input(inputPath).
		Output(outputPath, ffmpeg.KwArgs{
			"vn":     "",
			"ar":     16000,
			"ac":     1,
			"acodec": "libmp3lame",
			"b:a":    "64k",
		}).
		GlobalArgs(quietArgs...).
		OverWriteOutput()
}

// Cut copies [start, end) of inputPath without re-encoding.
func Cut(inputPath, outputPath string, start, end float64) *ffmpeg.Stream {
	return ffmpeg.Input(inputPath, ffmpeg.KwArgs{"ss": seconds(start)}).
		Output(outputPath, ffmpeg.KwArgs{
			"to":       seconds(end - start),
			"codec":    "copy",
			"strict":   "-2",
			"movflags": "faststart",
		}).
		GlobalArgs(quietArgs...).
		OverWriteOutput()
}

// VideoCodec is an encoder name plus its extra output arguments.
type VideoCodec struct {
	Name  string
	Extra ffmpeg.KwArgs
}

var (
	CodecHEVCNVENC = VideoCodec{Name: "hevc_nvenc"}
	CodecX265      = VideoCodec{
		Name:  "libx265",
		Extra: ffmpeg.KwArgs{"preset": "ultrafast", "crf": 18},
	}
)

// TranscodeOptions control how one cut segment is re-encoded.
type TranscodeOptions struct {
	Speed        float64
	FPS          int
	VideoFilters string
	Codec        VideoCodec

	// preview renders are downscaled and labelled with Label
	Preview      bool
	PreviewWidth int
	Label        string
}

// VideoFilterChain builds the -vf value for a transcode.
func VideoFilterChain(opts TranscodeOptions) string {
	var chain []string
	if opts.Preview {
		width := opts.PreviewWidth
		if width <= 0 {
			width = PreviewWidth
		}
		chain = append(chain, fmt.Sprintf("scale=%d:-1", width))
	}
	if f := strings.Trim(opts.VideoFilters, ", "); f != "" {
		chain = append(chain, f)
	}
	chain = append(chain,
		fmt.Sprintf("fps=%d", opts.FPS),
		fmt.Sprintf("setpts=(1/%s)*PTS", strconv.FormatFloat(opts.Speed, 'f', -1, 64)),
	)
	if opts.Preview && opts.Label != "" {
		width := opts.PreviewWidth
		if width <= 0 {
			width = PreviewWidth
		}
		chain = append(chain, fmt.Sprintf(
			"drawtext=fontcolor=white:x=%d:text=%s",
			width/3,
			escapeDrawtext(opts.Label),
		))
	}
	return strings.Join(chain, ",")
}

// drawtext treats ':' and '\'' as syntax
func escapeDrawtext(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `:`, `\:`, `'`, `\'`, `,`, `\,`)
	return r.Replace(s)
}

// Transcode applies speed, fps and filters to a cut segment.
func Transcode(inputPath, outputPath string, opts TranscodeOptions) *ffmpeg.Stream {
	codec := opts.Codec
	if codec.Name == "" {
		codec = CodecX265
	}

	kwargs := ffmpeg.KwArgs{
		"vcodec":   codec.Name,
		"vf":       VideoFilterChain(opts),
		"af":       "atempo=" + strconv.FormatFloat(opts.Speed, 'f', -1, 64),
		"acodec":   "flac",
		"strict":   "-2",
		"movflags": "faststart",
	}
	for k, v := range codec.Extra {
		kwargs[k] = v
	}

	return ffmpeg.Input(inputPath).
		Output(outputPath, kwargs).
		GlobalArgs(quietArgs...).
		OverWriteOutput()
}

// ConcatList renders a concat demuxer list for the given files.
func ConcatList(paths []string) string {
	var b strings.Builder
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = p
		}
		fmt.Fprintf(&b, "file 'file:%s'\n", strings.ReplaceAll(abs, "'", `'\''`))
	}
	return b.String()
}

// Concat joins the files listed in listPath without re-encoding.
func Concat(listPath, outputPath string) *ffmpeg.Stream {
	return ffmpeg.Input(listPath, ffmpeg.KwArgs{
		"f":                  "concat",
		"safe":               0,
		"protocol_whitelist": "file,pipe",
	}).
		Output(outputPath, ffmpeg.KwArgs{
			"codec":    "copy",
			"movflags": "faststart",
			"strict":   "-2",
		}).
		GlobalArgs(quietArgs...).
		OverWriteOutput()
}

// SoundSubclip extracts the left channel of [start, end) as flac.
func SoundSubclip(inputPath, outputPath string, start, end float64) *ffmpeg.Stream {
	return ffmpeg.Input(inputPath, ffmpeg.KwArgs{"ss": seconds(start)}).
		Output(outputPath, ffmpeg.KwArgs{
			"to":     seconds(end - start),
			"af":     LeftChannelFilter,
			"acodec": "flac",
		}).
		GlobalArgs(quietArgs...).
		OverWriteOutput()
}

// VideoSubclip copies the video stream of [start, end) and drops audio.
func VideoSubclip(inputPath, outputPath string, start, end float64) *ffmpeg.Stream {
	return ffmpeg.Input(inputPath, ffmpeg.KwArgs{"ss": seconds(start)}).
		Output(outputPath, ffmpeg.KwArgs{
			"to":    seconds(end - start),
			"an":    "",
			"codec": "copy",
		}).
		GlobalArgs(quietArgs...).
		OverWriteOutput()
}

// Mux pairs the audio of soundPath with the video of videoPath.
func Mux(soundPath, videoPath, outputPath string) *ffmpeg.Stream {
	sound := ffmpeg.Input(soundPath).Audio()
	video := ffmpeg.Input(videoPath).Video()
	return ffmpeg.Output([]*ffmpeg.Stream{sound, video}, outputPath, ffmpeg.KwArgs{
		"shortest": "",
		"codec":    "copy",
		"strict":   "-2",
		"movflags": "faststart",
	}).
		GlobalArgs(quietArgs...).
		OverWriteOutput()
}

// ExtractSound writes the left channel of a camera recording as wav.
func ExtractSound(inputPath, outputPath string) *ffmpeg.Stream {
	return ffmpeg.Input(inputPath).
		Output(outputPath, ffmpeg.KwArgs{
			"af": LeftChannelFilter,
			"vn": "",
		}).
		GlobalArgs(quietArgs...).
		OverWriteOutput()
}
