package route

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
)

const (
	statusSocialAuthorized = "Now authorized to post to this Twitter account: "
	statusSocialAuthFailed = "Twitter authorization failed."
	statusSocialPosted     = "Twitter status updated."
	statusSocialPostFailed = "Twitter status update failed."
)

func handleSocialRequest(_ context.Context, env *Env, resp Response) Outcome {
	out := status("")

	values, err := url.ParseQuery(strings.TrimSpace(string(resp.Body)))
	if err != nil {
		out.Err = &ProtocolError{Mode: resp.Mode, StatusCode: resp.StatusCode, Reason: err.Error()}
		return out
	}

	token := values.Get("oauth_token")
	if token == "" {
		out.Err = &ApplicationError{Mode: resp.Mode, Reason: "no request token"}
		return out
	}

	if err := env.Launcher.OpenURL(env.Social.AuthorizeURL(token)); err != nil {
		out.Err = err
		return out
	}

	pin, ok := env.Prompter.Prompt("Twitter Authorization", "Please enter the PIN shown on the page after logging into Twitter:")
	if !ok || pin == "" {
		return out
	}

	next := env.Social.AccessToken(token, values.Get("oauth_token_secret"), pin)
	if next == nil {
		return out
	}

	return Outcome{Next: next}
}

func handleSocialAuth(_ context.Context, env *Env, resp Response) Outcome {
	defer env.Views.RefreshView(ViewSettings, RefreshInfo)

	values, err := url.ParseQuery(strings.TrimSpace(string(resp.Body)))
	key, secret := values.Get("oauth_token"), values.Get("oauth_token_secret")
	if err != nil || key == "" || secret == "" {
		out := status(statusSocialAuthFailed)
		out.Err = &ApplicationError{Mode: resp.Mode, Reason: "no access token"}
		return out
	}

	user := values.Get("screen_name")
	env.Social.StoreCredentials(key, secret, user)

	return status(statusSocialAuthorized + user)
}

type socialPostResult struct {
	Errors []struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

func handleSocialPost(_ context.Context, env *Env, resp Response) Outcome {
	var result socialPostResult
	if err := json.Unmarshal(resp.Body, &result); err != nil {
		out := status(statusSocialPostFailed)
		out.Err = &ProtocolError{Mode: resp.Mode, StatusCode: resp.StatusCode, Reason: err.Error()}
		return out
	}

	if len(result.Errors) == 0 {
		return status(statusSocialPosted)
	}

	text := statusSocialPostFailed
	if msg := result.Errors[0].Message; msg != "" {
		text += " (" + msg + ")"
	}
	out := status(text)
	out.Err = &ApplicationError{Mode: resp.Mode, Reason: result.Errors[0].Message}
	return out
}
