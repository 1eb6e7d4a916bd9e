package robot

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/teslashibe/go-atlas/internal/httpc"
)

// HTTPController implements Platform against the robot daemon's JSON API.
type HTTPController struct {
	BaseURL string
	client  *http.Client
}

// NewHTTPController creates a new HTTP-based platform client.
// timeout bounds each request; zero uses the httpc default.
func NewHTTPController(baseURL string, timeout time.Duration) *HTTPController {
	client := httpc.Client
	if timeout > 0 {
		client = httpc.NewClient(timeout)
	}
	return &HTTPController{
		BaseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

// post issues one command. Commands are not cancelled once sent, so the
// caller's cancellation is detached; the client timeout still applies.
func (r *HTTPController) post(ctx context.Context, path string, payload, out any) error {
	err := httpc.DoJSON(context.WithoutCancel(ctx), r.client, http.MethodPost, r.BaseURL+path, payload, out)
	if err != nil {
		return &APIError{Op: path, Err: err}
	}
	return nil
}

// MoveForward drives forward for d.
func (r *HTTPController) MoveForward(ctx context.Context, d time.Duration) error {
	return r.post(ctx, "/api/drive/forward", map[string]any{"duration": d.Seconds()}, nil)
}

// MoveBackward drives backward for d.
func (r *HTTPController) MoveBackward(ctx context.Context, d time.Duration) error {
	return r.post(ctx, "/api/drive/backward", map[string]any{"duration": d.Seconds()}, nil)
}

// TurnLeft rotates counter-clockwise.
func (r *HTTPController) TurnLeft(ctx context.Context, degrees float64) error {
	return r.post(ctx, "/api/drive/turn", map[string]any{"direction": "left", "degrees": degrees}, nil)
}

// TurnRight rotates clockwise.
func (r *HTTPController) TurnRight(ctx context.Context, degrees float64) error {
	return r.post(ctx, "/api/drive/turn", map[string]any{"direction": "right", "degrees": degrees}, nil)
}

// Stop halts the drivetrain.
func (r *HTTPController) Stop(ctx context.Context) error {
	return r.post(ctx, "/api/drive/stop", nil, nil)
}

// NavigateTo drives to (x, y) in the odometry frame.
func (r *HTTPController) NavigateTo(ctx context.Context, x, y float64) error {
	return r.post(ctx, "/api/drive/navigate", map[string]float64{"x": x, "y": y}, nil)
}

// Grasp runs the daemon's pick sequence.
func (r *HTTPController) Grasp(ctx context.Context) error {
	return r.post(ctx, "/api/arm/grasp", nil, nil)
}

// CheckGrip queries the gripper.
func (r *HTTPController) CheckGrip(ctx context.Context) (bool, error) {
	var resp struct {
		Holding bool `json:"holding"`
	}
	if err := r.post(ctx, "/api/arm/grip", nil, &resp); err != nil {
		return false, err
	}
	return resp.Holding, nil
}

// Release opens the gripper.
func (r *HTTPController) Release(ctx context.Context) error {
	return r.post(ctx, "/api/arm/release", nil, nil)
}

// Present moves to the hand-over pose.
func (r *HTTPController) Present(ctx context.Context) error {
	return r.post(ctx, "/api/arm/pose", map[string]string{"pose": PosePresent}, nil)
}

// ReturnHome moves to the rest pose.
func (r *HTTPController) ReturnHome(ctx context.Context) error {
	return r.post(ctx, "/api/arm/pose", map[string]string{"pose": PoseHome}, nil)
}

// IsClear reads one ultrasonic sensor.
func (r *HTTPController) IsClear(ctx context.Context, dir Direction) (bool, error) {
	var resp struct {
		DistanceM float64 `json:"distance_m"`
		Clear     bool    `json:"clear"`
	}
	path := fmt.Sprintf("/api/sensors/ultrasonic/%s", dir)
	err := httpc.DoJSON(ctx, r.client, http.MethodGet, r.BaseURL+path, nil, &resp)
	if err != nil {
		return false, &APIError{Op: path, Err: err}
	}
	return resp.Clear, nil
}
