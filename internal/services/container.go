package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/MGiella/Smart-Lighting-with-KNX-and-Video-Tracking/internal/config"
	"github.com/MGiella/Smart-Lighting-with-KNX-and-Video-Tracking/internal/logging"
	"github.com/MGiella/Smart-Lighting-with-KNX-and-Video-Tracking/internal/models"
	"github.com/MGiella/Smart-Lighting-with-KNX-and-Video-Tracking/internal/services/detection"
	"github.com/MGiella/Smart-Lighting-with-KNX-and-Video-Tracking/internal/services/events"
	"github.com/MGiella/Smart-Lighting-with-KNX-and-Video-Tracking/internal/services/lights"
	"github.com/MGiella/Smart-Lighting-with-KNX-and-Video-Tracking/internal/services/messaging"
	"github.com/MGiella/Smart-Lighting-with-KNX-and-Video-Tracking/internal/services/pipeline"
	"github.com/MGiella/Smart-Lighting-with-KNX-and-Video-Tracking/internal/services/ptz"
	"github.com/MGiella/Smart-Lighting-with-KNX-and-Video-Tracking/internal/services/tracking"
	"github.com/MGiella/Smart-Lighting-with-KNX-and-Video-Tracking/internal/services/zones"
)

// ServiceContainer holds all services
type ServiceContainer struct {
	Config    *config.Config
	Messaging *messaging.Service
	Detector  tracking.Detector
	Pool      *tracking.Pool
	Lights    *lights.Controller
	Zones     *zones.Registry
	PTZ       *ptz.Queue
	Events    *events.Emitter
	Pipeline  *pipeline.Driver

	source    pipeline.FrameSource
	store     zones.Store
	kafka     *events.KafkaPublisher
	ptzSub    *nats.Subscription
	logger    zerolog.Logger
	cancel    context.CancelFunc
	pipelineW sync.WaitGroup
}

// NewServiceContainer creates a new service container
func NewServiceContainer(cfg *config.Config) (*ServiceContainer, error) {
	sc := &ServiceContainer{
		Config: cfg,
		logger: logging.NewServiceLogger(cfg, "container"),
	}

	if err := sc.init(); err != nil {
		sc.Shutdown(context.Background())
		return nil, err
	}
	return sc, nil
}

func (sc *ServiceContainer) init() error {
	cfg := sc.Config

	if cfg.NatsEnabled {
		msg, err := messaging.NewService(cfg)
		if err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		sc.Messaging = msg
	}

	publisher, err := sc.eventPublisher()
	if err != nil {
		return err
	}
	sc.Events = events.NewEmitter(publisher, cfg.WorkerID, 1, 256)
	sc.Events.Start()

	actuator, err := sc.actuator()
	if err != nil {
		return err
	}
	sc.Lights = lights.NewController(actuator, lights.Options{
		DebounceWindow:  cfg.DebounceWindow,
		SwitchPrefix:    cfg.SwitchPrefix,
		StatusPrefix:    cfg.StatusPrefix,
		ActuatorTimeout: cfg.ActuatorTimeout,
		ResetOnAllocate: cfg.ResetLightOnAlloc,
	}, clockwork.NewRealClock())
	sc.Lights.OnTransition(sc.Events.LightTransition)

	store, err := sc.zoneStore()
	if err != nil {
		return err
	}
	sc.store = store

	policy, err := zones.ParsePolicy(cfg.OccupancyPolicy)
	if err != nil {
		return err
	}
	sc.Zones = zones.NewRegistry(sc.Lights, store, zones.Options{
		CollisionMargin: cfg.CollisionMargin,
		Policy:          policy,
	})
	sc.Zones.SetObserver(sc.Events)

	detector, err := sc.detector()
	if err != nil {
		return err
	}
	sc.Detector = detector
	sc.Pool = tracking.NewPool(detector, tracking.Options{
		Workers:        cfg.TrackingWorkers,
		QueueSize:      cfg.TrackingQueueSize,
		SubmitInterval: cfg.AIFrameInterval,
		ClassID:        cfg.PersonClassID,
		MinScore:       cfg.MinScore,
		DetectTimeout:  cfg.AITimeout,
	})

	if cfg.PTZEnabled {
		if err := sc.initPTZ(); err != nil {
			return err
		}
	}

	source, err := pipeline.OpenCapture(cfg.VideoSource, cfg.CaptureFPS)
	if err != nil {
		return err
	}
	sc.source = source

	var sink pipeline.DetectionSink
	if cfg.ShowDetection {
		sink = sc.Events
	}
	sc.Pipeline = pipeline.NewDriver(source, sc.Pool, sc.Zones, sink)
	return nil
}

func (sc *ServiceContainer) eventPublisher() (models.MessagePublisher, error) {
	cfg := sc.Config
	switch strings.ToLower(cfg.EventsBackend) {
	case "nats":
		if sc.Messaging == nil {
			sc.logger.Warn().Msg("NATS disabled, events will not be published")
			return events.Discard, nil
		}
		return sc.Messaging, nil
	case "kafka":
		k, err := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
		}
		sc.kafka = k
		return k, nil
	case "none", "":
		return events.Discard, nil
	default:
		return nil, fmt.Errorf("unknown events backend %q", cfg.EventsBackend)
	}
}

func (sc *ServiceContainer) actuator() (lights.Actuator, error) {
	cfg := sc.Config
	switch strings.ToLower(cfg.ActuatorBackend) {
	case "nats":
		if sc.Messaging == nil {
			return nil, errors.New("nats actuator requires NATS_ENABLED=true")
		}
		return lights.NewNATSActuator(sc.Messaging, cfg.ActuatorSubject), nil
	case "log", "":
		return lights.LogActuator{}, nil
	default:
		return nil, fmt.Errorf("unknown actuator backend %q", cfg.ActuatorBackend)
	}
}

func (sc *ServiceContainer) zoneStore() (zones.Store, error) {
	cfg := sc.Config
	switch strings.ToLower(cfg.ZoneStore) {
	case "file", "":
		return zones.NewFileStore(cfg.ZoneFile), nil
	case "sqlite":
		return zones.NewSQLiteStore(cfg.ZoneDBPath)
	case "s3", "minio":
		return zones.NewObjectStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey,
			cfg.MinioBucket, cfg.ZoneObjectKey, cfg.MinioSecure)
	default:
		return nil, fmt.Errorf("unknown zone store %q", cfg.ZoneStore)
	}
}

func (sc *ServiceContainer) detector() (tracking.Detector, error) {
	cfg := sc.Config
	switch strings.ToLower(cfg.DetectorBackend) {
	case "grpc", "":
		return detection.NewService(cfg.AIGRPCURL)
	case "dnn":
		return detection.NewDNNDetector(cfg.DNNModelPath, cfg.DNNConfigPath, cfg.DNNInputSize)
	default:
		return nil, fmt.Errorf("unknown detector backend %q", cfg.DetectorBackend)
	}
}

func (sc *ServiceContainer) initPTZ() error {
	cfg := sc.Config
	link := ptz.NewHTTPCameraLink(cfg.PTZHost, cfg.PTZUser, cfg.PTZPassword, cfg.PTZTimeout)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.PTZTimeout)
	defer cancel()
	if err := link.Probe(ctx); err != nil {
		return fmt.Errorf("%w: %v", models.ErrCameraLink, err)
	}

	sc.PTZ = ptz.NewQueue(link, ptz.Options{
		Workers:     cfg.PTZWorkers,
		Speed:       cfg.PTZSpeed,
		SendTimeout: cfg.PTZTimeout,
	})

	if sc.Messaging != nil && cfg.PTZSubject != "" {
		sub, err := sc.Messaging.Subscribe(cfg.PTZSubject, sc.PTZ.HandleMessage)
		if err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", cfg.PTZSubject, err)
		}
		sc.ptzSub = sub
		sc.logger.Info().Str("subject", cfg.PTZSubject).Msg("Listening for PTZ commands")
	}
	return nil
}

// Start runs the frame pipeline in the background.
func (sc *ServiceContainer) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	sc.cancel = cancel

	sc.pipelineW.Add(1)
	go func() {
		defer sc.pipelineW.Done()
		if err := sc.Pipeline.Run(ctx); err != nil {
			sc.logger.Error().Err(err).Msg("Pipeline stopped with error")
		}
	}()

	if sc.Config.TrackOnStart {
		sc.Pipeline.StartTracking()
	}
}

// HealthProbes reports the dependencies worth checking from /health.
func (sc *ServiceContainer) HealthProbes() map[string]func() bool {
	probes := map[string]func() bool{}
	if h, ok := sc.Detector.(interface{ IsHealthy() bool }); ok {
		probes["detector"] = h.IsHealthy
	}
	if sc.Messaging != nil {
		probes["nats"] = sc.Messaging.IsConnected
	}
	return probes
}

// Shutdown gracefully shuts down all services
func (sc *ServiceContainer) Shutdown(ctx context.Context) error {
	var errs []error

	if sc.cancel != nil {
		sc.cancel()
		sc.pipelineW.Wait()
	}
	if sc.Pipeline != nil {
		sc.Pipeline.StopTracking()
	}
	if sc.source != nil {
		if err := sc.source.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if sc.ptzSub != nil {
		if err := sc.ptzSub.Unsubscribe(); err != nil {
			errs = append(errs, err)
		}
	}
	if sc.PTZ != nil {
		if err := sc.PTZ.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	if sc.Lights != nil {
		sc.Lights.ReleaseAll()
	}
	if sc.Events != nil {
		if err := sc.Events.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if sc.kafka != nil {
		if err := sc.kafka.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	switch d := sc.Detector.(type) {
	case *detection.Service:
		d.Shutdown(ctx)
	case *detection.DNNDetector:
		if err := d.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if closer, ok := sc.store.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if sc.Messaging != nil {
		if err := sc.Messaging.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
