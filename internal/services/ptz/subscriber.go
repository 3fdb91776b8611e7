package ptz

import (
	"encoding/json"

	"github.com/MGiella/Smart-Lighting-with-KNX-and-Video-Tracking/internal/models"
)

// HandleMessage decodes a JSON PTZJob from the message bus and queues it.
// Malformed or unknown jobs are logged and dropped.
func (q *Queue) HandleMessage(data []byte) {
	var job models.PTZJob
	if err := json.Unmarshal(data, &job); err != nil {
		q.logger.Warn().Err(err).Msg("Invalid PTZ message")
		return
	}
	if !job.Action.IsValid() {
		q.logger.Warn().Str("action", string(job.Action)).Msg("Unknown PTZ action")
		return
	}
	if !q.Enqueue(job) {
		q.logger.Debug().Str("action", job.Action.String()).Msg("PTZ queue closed, message ignored")
	}
}
