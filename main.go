package main

import (
	"flag"
	"log"

	"github.com/decker502/tourguide/pkg/app"
	"github.com/decker502/tourguide/pkg/embedded"
	"github.com/hajimehoshi/ebiten/v2"
)

func main() {
	verbose := flag.Bool("verbose", false, "启用详细日志输出")
	tour := flag.String("tour", "", "导览脚本路径（默认使用内置脚本）")
	sqlite := flag.String("sqlite", "", "SQLite 存储路径（默认使用 gdata 存储）")
	flag.Parse()

	// 初始化嵌入资源
	// assetsFS 在 embed.go 中声明
	embedded.Init(assetsFS)

	tourApp, err := app.NewApp(app.Config{
		Verbose:    *verbose,
		TourScript: *tour,
		SQLitePath: *sqlite,
	})
	if err != nil {
		log.Fatalf("应用初始化失败: %v", err)
	}
	defer tourApp.Close()

	// Set window properties
	ebiten.SetWindowSize(app.WindowWidth, app.WindowHeight)
	ebiten.SetWindowTitle("聚光引导演示 - Tour Guide")

	// Start the game loop
	// This will call Update() and Draw() repeatedly until the window is closed
	if err := ebiten.RunGame(tourApp); err != nil {
		log.Fatal(err)
	}
}
