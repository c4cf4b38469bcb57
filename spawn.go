package speechd

import (
	"fmt"
	"os/exec"
)

const daemonBinary = "speech-dispatcher"

// execCommand creates the command used to spawn the daemon. Overridden in tests.
var execCommand = exec.Command

// spawnDaemon asks speech-dispatcher to start itself unless it already runs.
// With --spawn the daemon forks and the parent exits once the socket is ready.
func spawnDaemon() error {
	out, err := execCommand(daemonBinary, "--spawn").CombinedOutput()
	if err != nil {
		return fmt.Errorf("spawning %s: %w: %s", daemonBinary, err, out)
	}
	return nil
}
