package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"
)

// newRunCommand 通过服务端调用一个工具
func newRunCommand() *cobra.Command {
	var (
		projectID string
		deviceKey string
		argsJSON  string
		async     bool
	)

	cmd := &cobra.Command{
		Use:   "run <tool>",
		Short: "调用工具",
		Example: `  pistachio run android_build --project com.example.app --args '{"project_dir":"/work/app"}'
  pistachio run android_test --project com.example.app --device emulator-5554 --args '{"project_dir":"/work/app"}'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tool := args[0]

			if argsJSON != "" && !json.Valid([]byte(argsJSON)) {
				return fmt.Errorf("--args 不是合法的 JSON: %s", argsJSON)
			}

			payload, err := sonic.Marshal(map[string]any{
				"project_id": projectID,
				"device":     deviceKey,
				"args":       json.RawMessage(argsJSON),
				"async":      async,
			})
			if err != nil {
				return err
			}

			url := serverAddr + "/api/v1/tools/" + tool
			req, err := http.NewRequestWithContext(cmd.Context(), http.MethodPost, url, bytes.NewReader(payload))
			if err != nil {
				return err
			}
			req.Header.Set("Content-Type", "application/json")

			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return err
			}
			if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
				return fmt.Errorf("服务端返回 %d: %s", resp.StatusCode, body)
			}

			var out struct {
				RunID   string `json:"run_id"`
				Status  string `json:"status"`
				Summary string `json:"summary"`
				Stdout  string `json:"stdout"`
				Stderr  string `json:"stderr"`
				Error   string `json:"error"`
			}
			if err := sonic.Unmarshal(body, &out); err != nil {
				return err
			}

			fmt.Printf("run_id: %s\nstatus: %s\n", out.RunID, out.Status)
			if out.Summary != "" {
				fmt.Printf("summary: %s\n", out.Summary)
			}
			if out.Stdout != "" {
				fmt.Fprint(os.Stdout, out.Stdout)
			}
			if out.Stderr != "" {
				fmt.Fprint(os.Stderr, out.Stderr)
			}
			if out.Error != "" {
				return fmt.Errorf("%s", out.Error)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&projectID, "project", "", "项目标识，同一项目的调用串行执行")
	cmd.Flags().StringVar(&deviceKey, "device", "", "设备标识，非空时执行期间独占该设备")
	cmd.Flags().StringVar(&argsJSON, "args", "{}", "工具参数（JSON）")
	cmd.Flags().BoolVar(&async, "async", false, "只提交不等待，结果通过 run_id 查询")

	return cmd
}
