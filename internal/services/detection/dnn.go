package detection

import (
	"context"
	"fmt"
	"image"
	"math"
	"sync"

	"gocv.io/x/gocv"

	"github.com/MGiella/Smart-Lighting-with-KNX-and-Video-Tracking/internal/models"
)

// DNNDetector runs a Darknet YOLO model locally with the OpenCV CPU backend.
type DNNDetector struct {
	net        gocv.Net
	outputs    []string
	inputSize  int
	minScore   float64
	nmsOverlap float32
	mu         sync.Mutex
}

func NewDNNDetector(weightsPath, configPath string, inputSize int) (*DNNDetector, error) {
	net := gocv.ReadNet(weightsPath, configPath)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load YOLO network from %s and %s", weightsPath, configPath)
	}
	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	if inputSize <= 0 {
		inputSize = 416
	}
	return &DNNDetector{
		net:        net,
		outputs:    outputLayerNames(&net),
		inputSize:  inputSize,
		minScore:   0.3,
		nmsOverlap: 0.4,
	}, nil
}

// outputLayerNames lists every YOLO head. Layer ids are 1-based.
func outputLayerNames(net *gocv.Net) []string {
	names := net.GetLayerNames()
	var outputs []string
	for _, id := range net.GetUnconnectedOutLayers() {
		if id > 0 && id <= len(names) {
			outputs = append(outputs, names[id-1])
		}
	}
	return outputs
}

// Detect runs one forward pass. The network is not safe for concurrent use,
// so calls are serialized.
func (d *DNNDetector) Detect(ctx context.Context, frame models.Frame) ([]models.Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	mat, err := frameToMat(frame)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	d.mu.Lock()
	defer d.mu.Unlock()

	blob := gocv.BlobFromImage(mat, 1.0/255.0, image.Pt(d.inputSize, d.inputSize), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")
	outputs := d.net.ForwardLayers(d.outputs)
	defer func() {
		for i := range outputs {
			outputs[i].Close()
		}
	}()

	var rows [][]float32
	for _, output := range outputs {
		for i := 0; i < output.Rows(); i++ {
			row := make([]float32, output.Cols())
			for j := range row {
				row[j] = output.GetFloatAt(i, j)
			}
			rows = append(rows, row)
		}
	}
	return decodeYOLO(rows, mat.Cols(), mat.Rows(), d.minScore, d.nmsOverlap), nil
}

// decodeYOLO converts Darknet output rows [cx, cy, w, h, objectness, class
// scores...] with normalized coordinates into pixel boxes. Within a class,
// boxes overlapping a stronger one above nmsOverlap IoU are suppressed so one
// person is counted once.
func decodeYOLO(rows [][]float32, width, height int, minScore float64, nmsOverlap float32) []models.Detection {
	byClass := make(map[int][]models.Detection)
	var classes []int
	for _, row := range rows {
		if len(row) < 6 {
			continue
		}
		classID, best := 0, float32(0)
		for c, score := range row[5:] {
			if score > best {
				classID, best = c, score
			}
		}
		if float64(best) < minScore {
			continue
		}
		w := float64(row[2]) * float64(width)
		h := float64(row[3]) * float64(height)
		if _, seen := byClass[classID]; !seen {
			classes = append(classes, classID)
		}
		byClass[classID] = append(byClass[classID], models.Detection{
			Box: models.BBox{
				X: float64(row[0])*float64(width) - w/2,
				Y: float64(row[1])*float64(height) - h/2,
				W: w,
				H: h,
			},
			Score:   float64(best),
			ClassID: classID,
		})
	}

	var dets []models.Detection
	for _, classID := range classes {
		dets = append(dets, suppress(byClass[classID], float32(minScore), nmsOverlap)...)
	}
	return dets
}

func suppress(dets []models.Detection, minScore, nmsOverlap float32) []models.Detection {
	if len(dets) < 2 {
		return dets
	}
	rects := make([]image.Rectangle, len(dets))
	scores := make([]float32, len(dets))
	for i, d := range dets {
		rects[i] = image.Rect(
			int(math.Round(d.Box.X)), int(math.Round(d.Box.Y)),
			int(math.Round(d.Box.X+d.Box.W)), int(math.Round(d.Box.Y+d.Box.H)),
		)
		scores[i] = float32(d.Score)
	}

	keep := gocv.NMSBoxes(rects, scores, minScore, nmsOverlap)
	kept := make([]models.Detection, 0, len(keep))
	for _, i := range keep {
		kept = append(kept, dets[i])
	}
	return kept
}

func (d *DNNDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.net.Close()
}
