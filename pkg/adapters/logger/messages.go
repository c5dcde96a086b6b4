package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Orchestration level messages (info)
		"Playing %s":                            "%s を再生中",
		"Playback finished: %d frames in %d ms": "再生が完了しました: %d フレーム / %d ms",
		"Interrupted, shutting down...":         "中断されました。シャットダウン中...",

		// Retrieve stage
		"Cache hit for %s":                     "%s のキャッシュが見つかりました",
		"Cache miss for %s, fetching":          "%s はキャッシュにありません。取得中",
		"Cache bypassed for %s, fetching":      "%s のキャッシュを使用せずに取得中",
		"Cached asset %s is missing, evicting": "キャッシュされたファイル %s が見つかりません。削除します",
		"Fetched %s":                           "%s を取得しました",

		// Playback stage
		"Opened %s stream %dx%d (%d samples)":            "%s ストリームを開きました %dx%d (%d サンプル)",
		"Scaling to %dx%d":                               "%dx%d に縮小します",
		"Starting %d encode workers, queue %d, batch %d": "%d エンコードワーカーを起動 (キュー %d, バッチ %d)",
		"State %s -> %s":                                 "状態 %s -> %s",
		"Frame %d encoded in %s":                         "フレーム %d を %s でエンコードしました",
		"Frame %d rendered":                              "フレーム %d を描画しました",

		// Command
		"Terminal area is %dx%d pixels": "端末の描画領域は %dx%d ピクセルです",
		"Cache is empty":                "キャッシュは空です",
		"Removed %s from the cache":     "%s をキャッシュから削除しました",

		// Fetcher
		"Running %s":                "%s を実行中",
		"Downloaded %s":             "%s をダウンロードしました",
		"Installing yt-dlp into %s": "yt-dlp を %s にインストール中",
		"Installed yt-dlp at %s":    "yt-dlp を %s にインストールしました",
		"Downloading %s":            "%s をダウンロード中",

		// Warnings
		"Playback stopped after %d of %d frames": "%d / %d フレームで再生が停止しました",

		// Errors
		"Failed to retrieve media: %s":     "メディアの取得に失敗しました: %s",
		"Failed to play media: %s":         "メディアの再生に失敗しました: %s",
		"Failed to write debug output: %s": "デバッグ出力の書き込みに失敗しました: %s",
	})
}
