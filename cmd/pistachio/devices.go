package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"text/tabwriter"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/jack-beanstalk-2022/PistachioMCP/internal/device"
)

// newDevicesCommand 列出服务端登记的设备
func newDevicesCommand() *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "devices",
		Short: "列出设备",
		RunE: func(cmd *cobra.Command, args []string) error {
			url := serverAddr + "/api/v1/devices"
			if refresh {
				url += "?refresh=true"
			}

			req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, url, nil)
			if err != nil {
				return err
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return err
			}
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("服务端返回 %d: %s", resp.StatusCode, body)
			}

			var list struct {
				Total   int           `json:"total"`
				Devices []device.Info `json:"devices"`
			}
			if err := sonic.Unmarshal(body, &list); err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SERIAL\tPLATFORM\tNAME\tSTATE\tENABLED")
			for _, d := range list.Devices {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%v\n", d.Serial, d.Platform, d.Name, d.State, d.IsEnabled)
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "列出前先执行 adb/simctl 发现")
	return cmd
}
