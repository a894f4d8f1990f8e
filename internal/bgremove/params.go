package bgremove

import "mediakit/internal/services/carvekit"

type modeSetting struct {
	objectType  string
	segMaskSize int
}

var modeSettings = map[string]modeSetting{
	ModeHairs:   {objectType: carvekit.ObjectHairsLike, segMaskSize: 320},
	ModeGeneral: {objectType: carvekit.ObjectGeneric, segMaskSize: 640},
	ModeAuto:    {objectType: carvekit.ObjectHairsLike, segMaskSize: 640},
}

// ResolveDevice picks the engine device. auto selects cuda only when the
// runtime reports CUDA.
func ResolveDevice(requested string, runtime carvekit.Runtime) string {
	switch requested {
	case DeviceCPU:
		return carvekit.DeviceCPU
	case DeviceCUDA:
		return carvekit.DeviceCUDA
	}
	if runtime.CUDAAvailable {
		return carvekit.DeviceCUDA
	}
	return carvekit.DeviceCPU
}

// ResolveParams maps validated options onto HiInterface parameters for
// device. Mode sets the object type and mask size; quality then overrides
// the batch and mask sizes it defines. fp16 is only kept on cuda.
func ResolveParams(opts Options, device string) carvekit.Params {
	mode, ok := modeSettings[opts.Mode]
	if !ok {
		mode = modeSettings[ModeAuto]
	}

	params := carvekit.Params{
		ObjectType:          mode.objectType,
		BatchSizeSeg:        opts.BatchSize,
		BatchSizeMatting:    carvekit.BatchSizeMatting,
		Device:              device,
		SegMaskSize:         mode.segMaskSize,
		MattingMaskSize:     2048,
		TrimapProbThreshold: carvekit.TrimapProbThreshold,
		TrimapDilation:      carvekit.TrimapDilation,
		TrimapErosionIters:  carvekit.TrimapErosionIters,
		FP16:                opts.FP16 && device == carvekit.DeviceCUDA,
	}

	switch opts.Quality {
	case QualityFast:
		params.BatchSizeSeg = 10
		params.SegMaskSize = 320
		params.MattingMaskSize = 1024
	case QualityHigh:
		params.BatchSizeSeg = 2
	}
	return params
}
