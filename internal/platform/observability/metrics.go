package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label values shared by callers.
const (
	MediaExisting       = "existing"
	MediaUploaded       = "uploaded"
	MediaAbsent         = "absent"
	MediaDownloadFailed = "download_failed"
	MediaUploadFailed   = "upload_failed"
	MediaLookupFailed   = "lookup_failed"

	VerdictSuspicious = "suspicious"
	VerdictClean      = "clean"
	VerdictFailed     = "failed"
)

var (
	Screenings = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "telegrasper_screenings_total",
		Help: "The total number of channel screenings by verdict",
	}, []string{"verdict"})

	MediaResolved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "telegrasper_media_total",
		Help: "The total number of media resolutions by result",
	}, []string{"result"})

	ArgotMatches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "telegrasper_argot_matches_total",
		Help: "The total number of argot terms matched in message text",
	})

	GraphNodesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "telegrasper_graph_nodes_created_total",
		Help: "The total number of graph nodes created by merges",
	})

	MessagesIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "telegrasper_messages_ingested_total",
		Help: "The total number of newly persisted messages",
	})

	MessagesDuplicate = promauto.NewCounter(prometheus.CounterOpts{
		Name: "telegrasper_messages_duplicate_total",
		Help: "The total number of messages skipped as already stored",
	})

	Scrapes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "telegrasper_scrapes_total",
		Help: "The total number of channel scrapes by outcome",
	}, []string{"status"})

	ScrapeDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "telegrasper_scrape_duration_seconds",
		Help:    "Duration in seconds of a channel scrape",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600, 1200},
	})

	ClassifierRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "telegrasper_classifier_request_duration_seconds",
		Help:    "Duration of classifier requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"model"})

	TelegramFloodWaits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "telegrasper_telegram_flood_waits_total",
		Help: "The total number of FLOOD_WAIT responses waited out",
	})

	SessionTasksInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "telegrasper_session_tasks_in_flight",
		Help: "Number of scrape or check tasks running on the session loop",
	})
)
