package route

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/adamwoolhether/dispatch/client/download"
)

func handleUpdateCheck(_ context.Context, env *Env, resp Response) Outcome {
	if err := env.Updater.ParseData(resp.Body); err != nil {
		env.Views.Close(ViewUpdate)
		return Outcome{Err: &ProtocolError{Mode: resp.Mode, StatusCode: resp.StatusCode, Reason: err.Error()}}
	}

	if env.Updater.DownloadAllowed() {
		if next := env.Updater.Download(); next != nil {
			if !downloaded(env, next.DownloadPath) {
				return Outcome{Next: next}
			}

			env.Logger.Info("update already downloaded", "path", next.DownloadPath)
			defer env.Views.Close(ViewUpdate)
			if err := env.Updater.RunInstaller(next.DownloadPath); err != nil {
				return Outcome{Err: fmt.Errorf("running installer: %w", err)}
			}
			return Outcome{}
		}
	}

	env.Views.Close(ViewUpdate)
	return Outcome{}
}

func handleUpdateDownload(ctx context.Context, env *Env, resp Response) Outcome {
	defer env.Views.Close(ViewUpdate)

	if !isSuccess(resp.StatusCode) {
		return Outcome{Err: &ProtocolError{Mode: resp.Mode, StatusCode: resp.StatusCode, Reason: "update not downloaded"}}
	}
	if resp.DownloadPath == "" {
		return Outcome{Err: errors.New("no download path for update")}
	}

	opts := []download.Option{download.WithProgress()}
	if sum := env.Updater.Checksum(); sum != "" {
		opts = append(opts, download.WithChecksum(sha256.New(), sum))
	}

	if err := download.Replace(ctx, resp.DownloadPath, resp.Body, env.Logger, opts...); err != nil {
		env.Views.ShowMessage(ViewUpdate, "Update", "The update could not be saved.")
		return Outcome{Err: fmt.Errorf("saving update: %w", err)}
	}

	if err := env.Updater.RunInstaller(resp.DownloadPath); err != nil {
		return Outcome{Err: fmt.Errorf("running installer: %w", err)}
	}

	return Outcome{}
}

// downloaded reports whether the announced package is already at path.
func downloaded(env *Env, path string) bool {
	sum := env.Updater.Checksum()
	if path == "" || sum == "" {
		return false
	}
	return download.Verify(path, sha256.New(), sum) == nil
}
