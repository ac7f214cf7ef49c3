package web

import (
	"encoding/json"
	"net/http"

	"github.com/sweeney/oven-controller/internal/config"
)

// configUpdate is a partial configuration update. Absent fields are left
// unchanged. Values out of range are silently ignored, matching the setter
// contract — the response body is the resulting configuration, so callers
// confirm by reading back.
type configUpdate struct {
	IgnitionDurationMs  *uint32  `json:"ignition_duration_ms"`
	PeriodicLogMs       *uint32  `json:"periodic_log_ms"`
	SensorFaultWindowMs *uint32  `json:"sensor_fault_window_ms"`
	AutoResumeDelayMs   *uint32  `json:"auto_resume_delay_ms"`
	VrefMinV            *float64 `json:"vref_min_v"`
	VrefMaxV            *float64 `json:"vref_max_v"`
	TempTargetC         *float64 `json:"temp_target_c"`
	TempDeltaC          *float64 `json:"temp_delta_c"`
	MaxIgnitionAttempts *int     `json:"max_ignition_attempts"`
	PurgeTimeMs         *uint32  `json:"purge_time_ms"`
	FlameRiseC          *float64 `json:"flame_rise_c"`
	FlameDetectEnabled  *bool    `json:"flame_detect_enabled"`
}

// configView mirrors config.Params for JSON output.
type configView struct {
	IgnitionDurationMs  uint32  `json:"ignition_duration_ms"`
	PeriodicLogMs       uint32  `json:"periodic_log_ms"`
	SensorFaultWindowMs uint32  `json:"sensor_fault_window_ms"`
	AutoResumeDelayMs   uint32  `json:"auto_resume_delay_ms"`
	VrefMinV            float64 `json:"vref_min_v"`
	VrefMaxV            float64 `json:"vref_max_v"`
	TempTargetC         float64 `json:"temp_target_c"`
	TempDeltaC          float64 `json:"temp_delta_c"`
	MaxIgnitionAttempts int     `json:"max_ignition_attempts"`
	PurgeTimeMs         uint32  `json:"purge_time_ms"`
	FlameRiseC          float64 `json:"flame_rise_c"`
	FlameDetectEnabled  bool    `json:"flame_detect_enabled"`
}

func viewOf(p config.Params) configView {
	return configView{
		IgnitionDurationMs:  p.IgnitionDurationMS,
		PeriodicLogMs:       p.PeriodicLogMS,
		SensorFaultWindowMs: p.SensorFaultWindowMS,
		AutoResumeDelayMs:   p.AutoResumeDelayMS,
		VrefMinV:            p.VrefMinV,
		VrefMaxV:            p.VrefMaxV,
		TempTargetC:         p.TempTargetC,
		TempDeltaC:          p.TempDeltaC,
		MaxIgnitionAttempts: p.MaxIgnitionAttempts,
		PurgeTimeMs:         p.PurgeTimeMS,
		FlameRiseC:          p.FlameRiseC,
		FlameDetectEnabled:  p.FlameDetectEnabled,
	}
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	s.writeConfig(w)
}

func (s *Server) handlePutConfig(w http.ResponseWriter, r *http.Request) {
	var upd configUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		http.Error(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	if upd.IgnitionDurationMs != nil {
		s.cfg.SetIgnitionDurationMS(*upd.IgnitionDurationMs)
	}
	if upd.PeriodicLogMs != nil {
		s.cfg.SetPeriodicLogMS(*upd.PeriodicLogMs)
	}
	if upd.SensorFaultWindowMs != nil {
		s.cfg.SetSensorFaultWindowMS(*upd.SensorFaultWindowMs)
	}
	if upd.AutoResumeDelayMs != nil {
		s.cfg.SetAutoResumeDelayMS(*upd.AutoResumeDelayMs)
	}
	if upd.VrefMinV != nil || upd.VrefMaxV != nil {
		// The range is validated as a pair; fill the missing side from
		// the current values.
		cur := s.cfg.Snapshot()
		min, max := cur.VrefMinV, cur.VrefMaxV
		if upd.VrefMinV != nil {
			min = *upd.VrefMinV
		}
		if upd.VrefMaxV != nil {
			max = *upd.VrefMaxV
		}
		s.cfg.SetVrefRangeV(min, max)
	}
	if upd.TempTargetC != nil {
		s.cfg.SetTempTargetC(*upd.TempTargetC)
	}
	if upd.TempDeltaC != nil {
		s.cfg.SetTempDeltaC(*upd.TempDeltaC)
	}
	if upd.MaxIgnitionAttempts != nil {
		s.cfg.SetMaxIgnitionAttempts(*upd.MaxIgnitionAttempts)
	}
	if upd.PurgeTimeMs != nil {
		s.cfg.SetPurgeTimeMS(*upd.PurgeTimeMs)
	}
	if upd.FlameRiseC != nil {
		s.cfg.SetFlameRiseC(*upd.FlameRiseC)
	}
	if upd.FlameDetectEnabled != nil {
		s.cfg.SetFlameDetectEnabled(*upd.FlameDetectEnabled)
	}

	s.writeConfig(w)
}

func (s *Server) writeConfig(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	data, _ := json.MarshalIndent(viewOf(s.cfg.Snapshot()), "", "  ")
	w.Write(data)
}
