package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	// Application
	Version     string
	Environment string
	WorkerID    string
	Port        int
	LogLevel    string

	// Logdy (lightweight web log viewer)
	LogdyEnabled bool
	LogdyHost    string
	LogdyPort    int

	// Video source: device index ("0") or stream URL
	VideoSource   string
	CaptureFPS    int
	TrackOnStart  bool
	ShowDetection bool

	// Detector
	// "grpc" talks to the remote AI server, "dnn" runs a local OpenCV model
	DetectorBackend string
	AIGRPCURL       string
	AITimeout       time.Duration
	DNNModelPath    string
	DNNConfigPath   string
	DNNInputSize    int

	// Tracking pool
	TrackingWorkers   int
	TrackingQueueSize int
	AIFrameInterval   int // Submit every Nth frame (2 = every 2nd frame)
	PersonClassID     int
	MinScore          float64

	// Zones
	CollisionMargin float64
	OccupancyPolicy string // accumulate | last_point_reset
	ZoneStore       string // file | sqlite | s3
	ZoneFile        string
	ZoneDBPath      string
	ZoneObjectKey   string

	// Lights
	DebounceWindow    time.Duration
	SwitchPrefix      string
	StatusPrefix      string
	ActuatorBackend   string // nats | log
	ActuatorSubject   string
	ActuatorTimeout   time.Duration
	ResetLightOnAlloc bool

	// PTZ camera (hi3510 CGI)
	PTZEnabled  bool
	PTZHost     string
	PTZUser     string
	PTZPassword string
	PTZWorkers  int
	PTZSpeed    int
	PTZTimeout  time.Duration
	PTZSubject  string

	// NATS (for messaging, actuators and events)
	// Default: nats://localhost:4222 (works with Docker Compose setup)
	// Docker: Use nats://nats:4222 if running worker in Docker
	NatsEnabled        bool
	NatsURL            string
	NatsConnectTimeout time.Duration
	NatsReconnectWait  time.Duration
	NatsMaxReconnects  int
	NatsDrainTimeout   time.Duration // For graceful shutdown

	// Events: "nats", "kafka" or "none"
	EventsBackend string
	KafkaBrokers  []string
	KafkaTopic    string

	// MinIO / S3 zone store
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioSecure    bool

	// Swagger Configuration
	SwaggerHost string
	SwaggerPort int

	// Graceful Shutdown
	ShutdownTimeout time.Duration
}

func Load() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("No .env file found or error loading .env file, using environment variables and defaults")
	} else {
		log.Info().Msg("Loaded configuration from .env file")
	}

	return &Config{
		// Application
		Version:     getEnv("VERSION", "1.0.0"),
		Environment: getEnv("ENVIRONMENT", "development"),
		WorkerID:    getEnv("WORKER_ID", "worker-1"),
		Port:        getEnvInt("PORT", 8000),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		// Logdy (lightweight web log viewer)
		LogdyEnabled: getEnvBool("LOGDY_ENABLED", false),
		LogdyHost:    getEnv("LOGDY_HOST", "localhost"),
		LogdyPort:    getEnvInt("LOGDY_PORT", 8080),

		// Video source
		VideoSource:   getEnv("VIDEO_SOURCE", "0"),
		CaptureFPS:    getEnvInt("CAPTURE_FPS", 25),
		TrackOnStart:  getEnvBool("TRACK_ON_START", false),
		ShowDetection: getEnvBool("PUBLISH_DETECTIONS", false),

		// Detector
		DetectorBackend: getEnv("DETECTOR_BACKEND", "grpc"),
		AIGRPCURL:       getEnv("AI_GRPC_URL", "localhost:50052"),
		AITimeout:       getEnvDuration("AI_TIMEOUT", 5*time.Second),
		DNNModelPath:    getEnv("DNN_MODEL_PATH", "models/yolov4-tiny.weights"),
		DNNConfigPath:   getEnv("DNN_CONFIG_PATH", "models/yolov4-tiny.cfg"),
		DNNInputSize:    getEnvInt("DNN_INPUT_SIZE", 416),

		// Tracking pool
		TrackingWorkers:   getEnvInt("TRACKING_WORKERS", 5),
		TrackingQueueSize: getEnvInt("TRACKING_QUEUE_SIZE", 10),
		AIFrameInterval:   getEnvInt("AI_FRAME_INTERVAL", 2),
		PersonClassID:     getEnvInt("PERSON_CLASS_ID", 0),
		MinScore:          getEnvFloat("MIN_SCORE", 0.5),

		// Zones
		CollisionMargin: getEnvFloat("COLLISION_MARGIN", 50),
		OccupancyPolicy: getEnv("OCCUPANCY_POLICY", "accumulate"),
		ZoneStore:       getEnv("ZONE_STORE", "file"),
		ZoneFile:        getEnv("ZONE_FILE", "zones.txt"),
		ZoneDBPath:      getEnv("ZONE_DB_PATH", "zones.db"),
		ZoneObjectKey:   getEnv("ZONE_OBJECT_KEY", "zones.txt"),

		// Lights
		DebounceWindow:    getEnvDuration("DEBOUNCE_WINDOW", 5*time.Second),
		SwitchPrefix:      getEnv("LIGHT_SWITCH_PREFIX", "0/0"),
		StatusPrefix:      getEnv("LIGHT_STATUS_PREFIX", "0/1"),
		ActuatorBackend:   getEnv("ACTUATOR_BACKEND", "log"),
		ActuatorSubject:   getEnv("ACTUATOR_SUBJECT", "knx.write"),
		ActuatorTimeout:   getEnvDuration("ACTUATOR_TIMEOUT", 2*time.Second),
		ResetLightOnAlloc: getEnvBool("RESET_LIGHT_ON_ALLOCATE", false),

		// PTZ camera
		PTZEnabled:  getEnvBool("PTZ_ENABLED", false),
		PTZHost:     getEnv("PTZ_HOST", "192.168.1.10"),
		PTZUser:     getEnv("PTZ_USER", "admin"),
		PTZPassword: getEnv("PTZ_PASSWORD", ""),
		PTZWorkers:  getEnvInt("PTZ_WORKERS", 1),
		PTZSpeed:    getEnvInt("PTZ_SPEED", 65),
		PTZTimeout:  getEnvDuration("PTZ_TIMEOUT", 3*time.Second),
		PTZSubject:  getEnv("PTZ_SUBJECT", "ptz.commands"),

		// NATS (configured for Docker Compose setup)
		NatsEnabled:        getEnvBool("NATS_ENABLED", false),
		NatsURL:            getNatsURL(),
		NatsConnectTimeout: getEnvDuration("NATS_CONNECT_TIMEOUT", 10*time.Second),
		NatsReconnectWait:  getEnvDuration("NATS_RECONNECT_WAIT", 2*time.Second),
		NatsMaxReconnects:  getEnvInt("NATS_MAX_RECONNECTS", -1), // -1 = unlimited
		NatsDrainTimeout:   getEnvDuration("NATS_DRAIN_TIMEOUT", 5*time.Second),

		// Events
		EventsBackend: getEnv("EVENTS_BACKEND", "nats"),
		KafkaBrokers:  getEnvList("KAFKA_BROKERS", []string{"localhost:9092"}),
		KafkaTopic:    getEnv("KAFKA_TOPIC", "zone-events"),

		// MinIO
		MinioEndpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", "minioadmin"),
		MinioSecretKey: getEnv("MINIO_SECRET_KEY", "minioadmin"),
		MinioBucket:    getEnv("MINIO_BUCKET", "zones"),
		MinioSecure:    getEnvBool("MINIO_SECURE", false),

		// Swagger Configuration
		SwaggerHost: getEnv("SWAGGER_HOST", "localhost"),
		SwaggerPort: getEnvInt("SWAGGER_PORT", 8000),

		// Graceful Shutdown
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

// Helper functions for Docker environment detection
func isRunningInDocker() bool {
	// Check for Docker-specific environment indicators
	if os.Getenv("DOCKER_CONTAINER") == "true" {
		return true
	}

	// Check for .dockerenv file
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true
	}

	return false
}

// getNatsURL returns the appropriate NATS URL based on environment
func getNatsURL() string {
	if envURL := os.Getenv("NATS_URL"); envURL != "" {
		return envURL
	}

	// If running in Docker, use service name; otherwise use localhost
	if isRunningInDocker() {
		return "nats://nats:4222"
	}

	return "nats://localhost:4222"
}
