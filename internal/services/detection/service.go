package detection

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/MGiella/Smart-Lighting-with-KNX-and-Video-Tracking/internal/models"
)

// Full gRPC method name of the detection server. Requests carry a JPEG in a
// BytesValue; replies are a Struct with a "detections" list.
const detectMethod = "/detection.DetectionService/Detect"

// Service is the remote detector reached over gRPC.
type Service struct {
	mu        sync.Mutex
	conn      *grpc.ClientConn
	grpcURL   string
	isHealthy bool
	quality   int
}

func NewService(grpcURL string) (*Service, error) {
	log.Info().Str("url", grpcURL).Msg("Initializing AI detection service")

	service := &Service{
		grpcURL: grpcURL,
		quality: 85,
	}

	// Try to connect, but don't fail if it's not available
	service.mu.Lock()
	err := service.connect()
	service.mu.Unlock()
	if err != nil {
		log.Warn().Err(err).Msg("AI detection service not available, will retry later")
	}

	return service, nil
}

func (s *Service) connect() error {
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}

	conn, err := grpc.NewClient(s.grpcURL, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return fmt.Errorf("failed to connect to detection service: %w", err)
	}

	// Test connection with health check
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{})
	if err != nil {
		conn.Close()
		return fmt.Errorf("detection service health check failed: %w", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		conn.Close()
		return fmt.Errorf("detection service not serving: %s", resp.GetStatus())
	}

	s.conn = conn
	s.isHealthy = true

	log.Info().Msg("Successfully connected to AI detection service")
	return nil
}

func (s *Service) ensureConnection() (*grpc.ClientConn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isHealthy && s.conn != nil {
		return s.conn, nil
	}
	if err := s.connect(); err != nil {
		return nil, err
	}
	return s.conn, nil
}

func (s *Service) markUnhealthy() {
	s.mu.Lock()
	s.isHealthy = false
	s.mu.Unlock()
}

func (s *Service) IsHealthy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isHealthy
}

// Detect sends one frame to the detection server.
func (s *Service) Detect(ctx context.Context, frame models.Frame) ([]models.Detection, error) {
	conn, err := s.ensureConnection()
	if err != nil {
		return nil, fmt.Errorf("detection service unavailable: %w", err)
	}

	jpeg, err := frameToJPEG(frame, s.quality)
	if err != nil {
		return nil, err
	}

	resp := &structpb.Struct{}
	if err := conn.Invoke(ctx, detectMethod, wrapperspb.Bytes(jpeg), resp); err != nil {
		s.markUnhealthy()
		return nil, err
	}
	dets, err := decodeDetections(resp)
	if err != nil {
		return nil, err
	}
	log.Debug().Int64("frame_id", frame.ID).Int("detections", len(dets)).Msg("Detection response")
	return dets, nil
}

// decodeDetections reads {"detections": [{"bbox": [x, y, w, h], "score": s, "class_id": c, "label": l}]}.
func decodeDetections(resp *structpb.Struct) ([]models.Detection, error) {
	list := resp.GetFields()["detections"].GetListValue()
	if list == nil {
		return nil, nil
	}

	dets := make([]models.Detection, 0, len(list.GetValues()))
	for i, v := range list.GetValues() {
		fields := v.GetStructValue().GetFields()
		if fields == nil {
			return nil, fmt.Errorf("detection %d is not an object", i)
		}
		bbox := fields["bbox"].GetListValue().GetValues()
		if len(bbox) != 4 {
			return nil, fmt.Errorf("detection %d: bbox has %d values", i, len(bbox))
		}
		dets = append(dets, models.Detection{
			Box: models.BBox{
				X: bbox[0].GetNumberValue(),
				Y: bbox[1].GetNumberValue(),
				W: bbox[2].GetNumberValue(),
				H: bbox[3].GetNumberValue(),
			},
			Score:   fields["score"].GetNumberValue(),
			ClassID: int(fields["class_id"].GetNumberValue()),
			Label:   fields["label"].GetStringValue(),
		})
	}
	return dets, nil
}

func (s *Service) Shutdown(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	s.isHealthy = false
}
