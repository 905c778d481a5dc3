package manager

import (
	"context"
	"fmt"
	"time"

	"flowd/internal/plugin"
	"flowd/pkg/types"
)

// Predict runs the loaded plugin. Hyperparameters are the session's values
// overlaid with req.Hypers, plus req.Image as origin_image. A plugin failure
// or panic is returned as PredictionError and the model stays loaded.
func (m *Manager) Predict(ctx context.Context, sid string, req types.PredictRequest) (*types.PredictResponse, error) {
	release, err := m.guard.acquire("predict")
	if err != nil {
		m.metrics.busy.WithLabelValues("predict").Inc()
		m.publish(Event{Name: EventBusy, Fields: map[string]any{"op": "predict"}})
		return nil, err
	}
	defer release()

	m.mu.RLock()
	h := m.handle
	m.mu.RUnlock()
	if h == nil {
		return nil, ModelNotLoadedError{}
	}

	st, err := m.sessions.Load(ctx, sid)
	if err != nil {
		return nil, err
	}
	named := make(map[string]any, len(st.Hypers)+len(req.Hypers)+1)
	for k, v := range st.Hypers {
		named[k] = v
	}
	for k, v := range req.Hypers {
		named[k] = v
	}
	if req.Image != "" {
		named["origin_image"] = req.Image
	}
	args, err := m.marshaler.ToPluginArgs(h.plugin, h.mode, named)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	res, err := safePredict(h.plugin, args)
	took := time.Since(start)
	m.metrics.predictSeconds.WithLabelValues(h.tag).Observe(took.Seconds())
	m.metrics.predictions.WithLabelValues(h.tag, result(err)).Inc()
	if err != nil {
		perr := PredictionError{Tag: h.tag, Err: err}
		m.mu.Lock()
		m.lastErr = perr.Error()
		m.mu.Unlock()
		m.log.Error().Err(err).Str("plugin", h.tag).Str("config", h.cfg.Summary()).Msg("prediction failed")
		m.publish(Event{Name: EventPredictFailed, Pipeline: h.cfg.Pipeline, Fields: map[string]any{"error": err.Error()}})
		return nil, perr
	}
	m.mu.Lock()
	m.predictionsTotal++
	m.mu.Unlock()
	m.publish(Event{Name: EventPredictDone, Pipeline: h.cfg.Pipeline, Fields: map[string]any{"took_ms": took.Milliseconds()}})
	return toResponse(res, args.Extra, took), nil
}

// safePredict calls p.Predict, turning a panic into an error.
func safePredict(p plugin.Plugin, args plugin.Args) (res *plugin.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, fmt.Errorf("plugin panic: %v", r)
		}
	}()
	res, err = p.Predict(args)
	if err == nil && res == nil {
		res = &plugin.Result{}
	}
	return res, err
}

func toResponse(res *plugin.Result, passthrough map[string]any, took time.Duration) *types.PredictResponse {
	out := &types.PredictResponse{
		Shapes:        make([]types.Shape, 0, len(res.Shapes)),
		Description:   res.Description,
		PeriodSeconds: took.Seconds(),
	}
	for _, s := range res.Shapes {
		out.Shapes = append(out.Shapes, types.Shape{
			Label:     s.Label,
			Score:     s.Score,
			ShapeType: s.ShapeType,
			Points:    s.Points,
			Visible:   s.Visible,
			GroupID:   s.GroupID,
		})
	}
	if len(res.Extra)+len(passthrough) > 0 {
		out.Extra = make(map[string]any, len(res.Extra)+len(passthrough))
		for k, v := range passthrough {
			out.Extra[k] = v
		}
		for k, v := range res.Extra {
			out.Extra[k] = v
		}
	}
	return out
}
