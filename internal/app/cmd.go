package app

// Command 表示應用程式的啟動模式。
type Command string

const (
	// CommandRun 執行一次收集與調和後結束。
	CommandRun Command = "run"
	// CommandServe 以唯讀狀態API伺服器模式啟動。
	CommandServe Command = "serve"
	// CommandHealthcheck 對serve模式的伺服器做存活確認。
	// distroless環境的容器健康檢查用。
	CommandHealthcheck Command = "healthcheck"
)

// ParseCommand 解析命令列引數的子命令。
// 引數為空或不支援的命令時回傳CommandRun。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandRun
	}

	switch args[0] {
	case "run":
		return CommandRun
	case "serve":
		return CommandServe
	case "healthcheck":
		return CommandHealthcheck
	default:
		return CommandRun
	}
}
