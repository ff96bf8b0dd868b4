package route

import (
	"context"

	"github.com/adamwoolhether/dispatch/mode"
)

func defaultHandlers() map[mode.Mode]Handler {
	return map[mode.Mode]Handler{
		mode.Silent:          HandlerFunc(handleNothing),
		mode.RefreshList:     HandlerFunc(handleRefreshList),
		mode.Login:           HandlerFunc(handleLogin),
		mode.ItemAdd:         HandlerFunc(handleMutation),
		mode.ItemUpdate:      HandlerFunc(handleMutation),
		mode.ItemDelete:      HandlerFunc(handleMutation),
		mode.AskToDiscuss:    HandlerFunc(handleAskToDiscuss),
		mode.Details:         HandlerFunc(handleDetails),
		mode.Image:           HandlerFunc(handleImage),
		mode.UserImage:       HandlerFunc(handleNothing),
		mode.Search:          HandlerFunc(handleSearch),
		mode.FeedCheck:       HandlerFunc(handleFeedCheck),
		mode.FeedCheckAuto:   HandlerFunc(handleFeedCheck),
		mode.FeedDownload:    HandlerFunc(handleFeedDownload),
		mode.FeedDownloadAll: HandlerFunc(handleFeedDownload),
		mode.FeedIcon:        HandlerFunc(handleNothing),
		mode.SocialRequest:   HandlerFunc(handleSocialRequest),
		mode.SocialAuth:      HandlerFunc(handleSocialAuth),
		mode.SocialPost:      HandlerFunc(handleSocialPost),
		mode.UpdateCheck:     HandlerFunc(handleUpdateCheck),
		mode.UpdateDownload:  HandlerFunc(handleUpdateDownload),
	}
}

func handleNothing(context.Context, *Env, Response) Outcome { return Outcome{} }

// handleDefault serves modes without a registered handler.
func handleDefault(_ context.Context, env *Env, resp Response) Outcome {
	if env.Debug {
		env.Views.ShowMessage(ViewMain, resp.Mode.String(), string(resp.Body))
	}
	return Outcome{}
}

func isSuccess(code int) bool { return code >= 200 && code < 300 }
