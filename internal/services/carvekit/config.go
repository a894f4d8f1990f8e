package carvekit

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Engine constants.
const (
	DefaultPython = "python3"
	CPUIndexURL   = "https://download.pytorch.org/whl/cpu"
	CUDAIndexURL  = "https://download.pytorch.org/whl/cu121"

	DeviceCPU  = "cpu"
	DeviceCUDA = "cuda"

	ObjectHairsLike = "hairs-like"
	ObjectGeneric   = "object"

	PostProcessingFBA  = "fba"
	PostProcessingNone = "none"

	BatchSizeMatting    = 1
	TrimapProbThreshold = 231
	TrimapDilation      = 30
	TrimapErosionIters  = 5
)

// RequiredModules are the Python imports the driver needs.
var RequiredModules = []string{"torch", "carvekit", "PIL"}

// InstallHints returns the pip commands that install CarveKit with CPU or
// CUDA wheels.
func InstallHints() []string {
	return []string{
		"CPU:  pip install carvekit --extra-index-url " + CPUIndexURL,
		"GPU:  pip install carvekit --extra-index-url " + CUDAIndexURL,
	}
}

// Params are the HiInterface keyword arguments.
type Params struct {
	ObjectType          string `mapstructure:"object_type" json:"object_type"`
	BatchSizeSeg        int    `mapstructure:"batch_size_seg" json:"batch_size_seg"`
	BatchSizeMatting    int    `mapstructure:"batch_size_matting" json:"batch_size_matting"`
	Device              string `mapstructure:"device" json:"device"`
	SegMaskSize         int    `mapstructure:"seg_mask_size" json:"seg_mask_size"`
	MattingMaskSize     int    `mapstructure:"matting_mask_size" json:"matting_mask_size"`
	TrimapProbThreshold int    `mapstructure:"trimap_prob_threshold" json:"trimap_prob_threshold"`
	TrimapDilation      int    `mapstructure:"trimap_dilation" json:"trimap_dilation"`
	TrimapErosionIters  int    `mapstructure:"trimap_erosion_iters" json:"trimap_erosion_iters"`
	FP16                bool   `mapstructure:"fp16" json:"fp16"`
}

// Dict renders the parameters as the keyword dictionary handed to HiInterface.
func (p Params) Dict() (map[string]any, error) {
	out := make(map[string]any)
	if err := mapstructure.Decode(p, &out); err != nil {
		return nil, fmt.Errorf("encode carvekit params: %w", err)
	}
	return out, nil
}

// Item pairs one input image with the file the result is written to.
type Item struct {
	Input  string `json:"input"`
	Output string `json:"output"`
}

// Job is everything the driver needs for one process invocation.
type Job struct {
	Params         Params
	PostProcessing string
	Items          []Item
}

type jobPayload struct {
	Interface      map[string]any `json:"interface"`
	PostProcessing string         `json:"post_processing"`
	Items          []Item         `json:"items"`
}

func (j Job) payload() (jobPayload, error) {
	dict, err := j.Params.Dict()
	if err != nil {
		return jobPayload{}, err
	}
	post := j.PostProcessing
	if post == "" {
		post = PostProcessingFBA
	}
	return jobPayload{Interface: dict, PostProcessing: post, Items: j.Items}, nil
}

// Runtime describes the interpreter environment reported by the probe.
type Runtime struct {
	Python          string `json:"python"`
	TorchVersion    string `json:"torch"`
	CarveKitVersion string `json:"carvekit"`
	CUDAAvailable   bool   `json:"cuda"`
	CUDADevice      string `json:"cuda_device"`
}

// Event is one JSON line emitted by the driver.
type Event struct {
	Event   string `json:"event"`
	Index   int    `json:"index"`
	Input   string `json:"input,omitempty"`
	Output  string `json:"output,omitempty"`
	Bytes   int64  `json:"bytes,omitempty"`
	Message string `json:"message,omitempty"`
	Device  string `json:"device,omitempty"`
	Count   int    `json:"count,omitempty"`
}

// Driver event names.
const (
	EventReady   = "ready"
	EventSaved   = "saved"
	EventError   = "error"
	EventRuntime = "runtime"
)

// Result summarizes a process invocation.
type Result struct {
	Saved  []Event
	Failed []Event
}
