package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/nfnt/resize"
	ort "github.com/yalue/onnxruntime_go"
	_ "golang.org/x/image/bmp"

	"github.com/zatekoja/mypadicare/internal/domain/entities"
	"github.com/zatekoja/mypadicare/internal/domain/providers"
	"github.com/zatekoja/mypadicare/internal/infrastructure/observability"
)

// Tensor layouts understood by imageToTensor.
const (
	LayoutNHWC = "nhwc"
	LayoutNCHW = "nchw"
)

// ModelMetadata describes an exported model's tensors and class order.
type ModelMetadata struct {
	InputShape   []int64  `json:"input_shape"`
	OutputShape  []int64  `json:"output_shape"`
	Classes      []string `json:"classes"`
	ImageSize    int      `json:"image_size"`
	Layout       string   `json:"layout"`
	ApplySoftmax bool     `json:"apply_softmax"`
}

// LoadModelMetadata reads and validates a metadata file.
func LoadModelMetadata(path string) (*ModelMetadata, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}

	var meta ModelMetadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("failed to parse metadata: %w", err)
	}
	if meta.Layout == "" {
		meta.Layout = LayoutNHWC
	}

	if meta.ImageSize <= 0 {
		return nil, fmt.Errorf("metadata image_size must be positive")
	}
	if meta.Layout != LayoutNHWC && meta.Layout != LayoutNCHW {
		return nil, fmt.Errorf("unsupported layout %q", meta.Layout)
	}
	if len(meta.Classes) == 0 {
		return nil, fmt.Errorf("metadata lists no classes")
	}
	for _, class := range meta.Classes {
		if !entities.IsKnownDisease(class) {
			return nil, fmt.Errorf("metadata class %q is not a known disease", class)
		}
	}
	if got := shapeSize(meta.OutputShape); got != int64(len(meta.Classes)) {
		return nil, fmt.Errorf("output shape holds %d values for %d classes", got, len(meta.Classes))
	}
	if want := int64(3 * meta.ImageSize * meta.ImageSize); shapeSize(meta.InputShape) != want {
		return nil, fmt.Errorf("input shape %v does not match a %dx%d RGB image", meta.InputShape, meta.ImageSize, meta.ImageSize)
	}
	return &meta, nil
}

func shapeSize(shape []int64) int64 {
	if len(shape) == 0 {
		return 0
	}
	size := int64(1)
	for _, dim := range shape {
		size *= dim
	}
	return size
}

// OnnxConfig locates the model artifacts.
type OnnxConfig struct {
	ModelPath    string
	MetadataPath string
	LibraryPath  string
	TopK         int
}

// OnnxAdapter classifies images in-process with onnxruntime. The session
// owns fixed input/output tensors, so Run calls are serialized.
type OnnxAdapter struct {
	mu           sync.Mutex
	session      *ort.AdvancedSession
	metadata     *ModelMetadata
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
	topK         int
}

var _ providers.Classifier = (*OnnxAdapter)(nil)

// NewOnnxAdapter initializes the onnxruntime environment and loads the model.
func NewOnnxAdapter(cfg OnnxConfig) (*OnnxAdapter, error) {
	metadata, err := LoadModelMetadata(cfg.MetadataPath)
	if err != nil {
		return nil, err
	}

	if cfg.LibraryPath != "" {
		ort.SetSharedLibraryPath(cfg.LibraryPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("failed to initialize ONNX environment: %w", err)
	}

	inputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(metadata.InputShape...))
	if err != nil {
		ort.DestroyEnvironment()
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}

	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(metadata.OutputShape...))
	if err != nil {
		inputTensor.Destroy()
		ort.DestroyEnvironment()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(cfg.ModelPath,
		[]string{"input"}, []string{"output"},
		[]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor},
		nil)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		ort.DestroyEnvironment()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	return &OnnxAdapter{
		session:      session,
		metadata:     metadata,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
		topK:         cfg.TopK,
	}, nil
}

// Name identifies the backend
func (a *OnnxAdapter) Name() string {
	return "onnx"
}

// Classify decodes, resizes and scores the image.
func (a *OnnxAdapter) Classify(ctx context.Context, imagePath string) (*entities.ClassifierOutput, error) {
	input, err := loadImageTensor(imagePath, a.metadata.ImageSize, a.metadata.Layout)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	a.mu.Lock()
	copy(a.inputTensor.GetData(), input)
	runErr := a.session.Run()
	raw := append([]float32(nil), a.outputTensor.GetData()...)
	a.mu.Unlock()
	if runErr != nil {
		return nil, fmt.Errorf("%w: inference failed: %v", providers.ErrClassifierUnavailable, runErr)
	}

	var scores []float64
	if a.metadata.ApplySoftmax {
		scores = Softmax(raw)
	} else {
		scores = make([]float64, len(raw))
		for i, v := range raw {
			scores[i] = float64(v)
		}
	}

	output := OutputFromPredictions(RankTopK(scores, a.metadata.Classes, a.topK))
	output.ImageName = filepath.Base(imagePath)

	observability.LoggerFromContext(ctx).Debug().
		Str("top_prediction", output.TopPrediction).
		Float64("confidence", output.Confidence).
		Dur("inference", time.Since(start)).
		Msg("onnx classification complete")
	return output, nil
}

// Close releases tensors, the session and the runtime environment.
func (a *OnnxAdapter) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.inputTensor != nil {
		a.inputTensor.Destroy()
	}
	if a.outputTensor != nil {
		a.outputTensor.Destroy()
	}
	if a.session != nil {
		a.session.Destroy()
	}
	ort.DestroyEnvironment()
}

func loadImageTensor(path string, size int, layout string) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", providers.ErrClassifierUnavailable, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot decode image: %v", entities.ErrUploadRejected, err)
	}
	return imageToTensor(img, size, layout), nil
}

// imageToTensor resizes img to size x size and scales RGB to [0,1].
func imageToTensor(img image.Image, size int, layout string) []float32 {
	resized := resize.Resize(uint(size), uint(size), img, resize.Bilinear)
	bounds := resized.Bounds()
	plane := size * size
	data := make([]float32, 3*plane)

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			r, g, b, _ := resized.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			rgb := [3]float32{float32(r) / 65535, float32(g) / 65535, float32(b) / 65535}
			pixel := y*size + x
			for c, v := range rgb {
				if layout == LayoutNCHW {
					data[c*plane+pixel] = v
				} else {
					data[pixel*3+c] = v
				}
			}
		}
	}
	return data
}
