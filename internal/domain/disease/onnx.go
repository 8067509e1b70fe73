package disease

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/Jagmohan-Prajapati/Smart-Agriculture/internal/domain/imaging"
)

// ortEnv manages global ONNX Runtime initialization (process-wide singleton).
var ortEnv struct {
	once sync.Once
	err  error
}

// initORT initializes the ONNX Runtime environment. Only the first call has
// any effect.
func initORT(libPath string) error {
	ortEnv.once.Do(func() {
		if libPath != "" {
			ort.SetSharedLibraryPath(libPath)
		}
		ortEnv.err = ort.InitializeEnvironment()
	})
	return ortEnv.err
}

// ONNXModel runs an exported image classifier through ONNX Runtime. The
// graph takes one float32 image batch, NHWC or NCHW, and returns [1, classes].
type ONNXModel struct {
	session       *ort.DynamicAdvancedSession
	inputName     string
	outputName    string
	channelsFirst bool
	classes       int64
}

// LoadONNX opens modelPath. classes is used when the graph leaves the class
// dimension symbolic.
func LoadONNX(modelPath, libPath string, classes int) (*ONNXModel, error) {
	if _, err := os.Stat(modelPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrModelNotFound, modelPath)
		}
		return nil, err
	}
	if err := initORT(libPath); err != nil {
		return nil, fmt.Errorf("onnx: failed to initialize runtime: %w", err)
	}

	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, fmt.Errorf("%w: onnx model info: %w", ErrBadModel, err)
	}
	if len(inputs) != 1 || len(outputs) == 0 {
		return nil, fmt.Errorf("%w: want 1 input and at least 1 output, got %d and %d", ErrBadModel, len(inputs), len(outputs))
	}
	inDims := inputs[0].Dimensions
	if len(inDims) != 4 {
		return nil, fmt.Errorf("%w: expected 4D input tensor, got %v", ErrBadModel, inDims)
	}
	outDims := outputs[0].Dimensions
	if len(outDims) != 2 {
		return nil, fmt.Errorf("%w: expected 2D output tensor, got %v", ErrBadModel, outDims)
	}
	n := outDims[1]
	if n <= 0 {
		n = int64(classes)
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create session options: %w", err)
	}
	defer opts.Destroy()
	opts.SetIntraOpNumThreads(4)
	opts.SetInterOpNumThreads(1)

	session, err := ort.NewDynamicAdvancedSession(
		modelPath,
		[]string{inputs[0].Name},
		[]string{outputs[0].Name},
		opts,
	)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create session: %w", err)
	}

	return &ONNXModel{
		session:       session,
		inputName:     inputs[0].Name,
		outputName:    outputs[0].Name,
		channelsFirst: inDims[1] == imaging.Channels && inDims[3] != imaging.Channels,
		classes:       n,
	}, nil
}

// Probabilities implements Model. Raw logits are passed through softmax;
// outputs that already form a distribution are returned as is.
func (m *ONNXModel) Probabilities(_ context.Context, t imaging.Tensor) ([]float32, error) {
	shape := ort.NewShape(t.Shape[:]...)
	data := t.Data
	if m.channelsFirst {
		shape = ort.NewShape(t.Shape[0], t.Shape[3], t.Shape[1], t.Shape[2])
		data = toNCHW(t)
	}

	in, err := ort.NewTensor(shape, data)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create input tensor: %w", err)
	}
	defer in.Destroy()

	out, err := ort.NewEmptyTensor[float32](ort.NewShape(1, m.classes))
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create output tensor: %w", err)
	}
	defer out.Destroy()

	if err := m.session.Run([]ort.Value{in}, []ort.Value{out}); err != nil {
		return nil, fmt.Errorf("onnx: inference failed: %w", err)
	}

	// Copy data out before the tensor is destroyed.
	src := out.GetData()
	probs := make([]float32, len(src))
	copy(probs, src)
	if !isDistribution(probs) {
		probs = Softmax(probs)
	}
	return probs, nil
}

// Close releases the session.
func (m *ONNXModel) Close() error {
	return m.session.Destroy()
}

func toNCHW(t imaging.Tensor) []float32 {
	h, w := t.Height(), t.Width()
	out := make([]float32, len(t.Data))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			for c := 0; c < imaging.Channels; c++ {
				out[c*h*w+y*w+x] = t.At(y, x, c)
			}
		}
	}
	return out
}
