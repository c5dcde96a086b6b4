// Package main provides localization for the youterm CLI.
package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	// Register Japanese translations for CLI messages.
	l10n.Register("ja", l10n.LexiconMap{
		// Flag categories
		"Logging":     "ログ",
		"Storage":     "保存先",
		"Debug":       "デバッグ",
		"Output":      "出力",
		"Performance": "パフォーマンス",

		// Root command
		"Play online videos in the terminal as sixel graphics": "オンライン動画をsixelグラフィックスとして端末で再生",
		"Print the version":                                    "バージョンを表示",

		// Global flags
		"Enable debug logging":                                                   "デバッグログを有効化",
		"Log level (debug, info, warn, error)":                                   "ログレベル（debug, info, warn, error）",
		"Suppress all log output":                                                "すべてのログ出力を抑制",
		"Data directory (default: $YOUTERM_DATA_DIR or the user data directory)": "データディレクトリ（デフォルト: $YOUTERM_DATA_DIR またはユーザーデータディレクトリ）",
		"Configuration file (default: <data-dir>/config.yaml)":                   "設定ファイル（デフォルト: <data-dir>/config.yaml）",
		"Save stream info and scaled frames to <data-dir>/debug":                 "ストリーム情報と縮小フレームを <data-dir>/debug に保存",

		// Play command
		"Play a video":                                                     "動画を再生",
		"Download again even when the media is cached":                     "キャッシュ済みでも再ダウンロード",
		"Output width in pixels (keeps aspect ratio when height is unset)": "出力幅（ピクセル、高さ未指定時は縦横比を維持）",
		"Output height in pixels (keeps aspect ratio when width is unset)": "出力高さ（ピクセル、幅未指定時は縦横比を維持）",
		"Divide the native size by this factor (>= 1)":                     "元のサイズをこの係数で割る（1以上）",
		"Number of encode workers (default: number of CPUs)":               "エンコードワーカー数（デフォルト: CPU数）",
		"Render frames as soon as they are encoded":                        "エンコード完了順にフレームを描画",
		"Exactly one request identifier is required":                       "リクエスト識別子を1つ指定してください",

		// Test command
		"Play %s": "%s を再生",

		// Cache command
		"Inspect the content cache":                  "コンテンツキャッシュを確認",
		"List cached media":                          "キャッシュ済みメディアを一覧表示",
		"Forget a cached request (the file is kept)": "キャッシュの記録を削除（ファイルは残ります）",
		"Cache is empty":                             "キャッシュは空です",
		"Removed %s from the cache":                  "%s をキャッシュから削除しました",

		// Version command
		"Show version information": "バージョン情報を表示",
		"youterm version %s":       "youterm バージョン %s",
	})
}
