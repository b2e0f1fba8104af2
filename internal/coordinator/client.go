package coordinator

import (
	"context"

	"github.com/jonathan/resume-autofill/internal/types"
)

func (c *Coordinator) call(ctx context.Context, t CommandType, payload any, out any) error {
	cmd, err := NewCommand(t, payload)
	if err != nil {
		return err
	}
	res := c.Dispatch(ctx, cmd)
	if out == nil {
		return res.Err()
	}
	return res.Decode(out)
}

// Status runs CHECK_AUTH.
func (c *Coordinator) Status(ctx context.Context) (*types.AuthStatus, error) {
	var out types.AuthStatus
	if err := c.call(ctx, CheckAuth, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ResumeData runs GET_RESUME_DATA.
func (c *Coordinator) ResumeData(ctx context.Context) (*ResumeData, error) {
	var out ResumeData
	if err := c.call(ctx, GetResumeData, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ResumePDF runs GET_RESUME_PDF.
func (c *Coordinator) ResumePDF(ctx context.Context) (*types.ResumePDF, error) {
	var out PDFData
	if err := c.call(ctx, GetResumePDF, nil, &out); err != nil {
		return nil, err
	}
	return &types.ResumePDF{Filename: out.Filename, Data: out.Data}, nil
}

// Preferences runs GET_PREFERENCES.
func (c *Coordinator) Preferences(ctx context.Context) (types.Preferences, error) {
	out := types.DefaultPreferences()
	if err := c.call(ctx, GetPreferences, nil, &out); err != nil {
		return types.DefaultPreferences(), err
	}
	return out, nil
}
