package util_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/reelvault/asset-services/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pidFilePath(t *testing.T) string {
	return filepath.Join(t.TempDir(), "asset-server-test.pid")
}

func TestIsRunningInOtherProcess(t *testing.T) {
	tempFile := pidFilePath(t)

	// False, because there is no pid file
	assert.False(t, util.IsRunningInOtherProcess(tempFile))

	// False, because zero is not a pid
	require.Nil(t, os.WriteFile(tempFile, []byte("0"), 0664))
	assert.False(t, util.IsRunningInOtherProcess(tempFile))

	// False, because pid in file matches our pid
	require.Nil(t, util.WritePidFile(tempFile))
	assert.False(t, util.IsRunningInOtherProcess(tempFile))

	// True, because pid doesn't match
	require.Nil(t, os.WriteFile(tempFile, []byte("9499"), 0664))
	assert.True(t, util.IsRunningInOtherProcess(tempFile))
}

func TestReadPidFile(t *testing.T) {
	tempFile := pidFilePath(t)
	require.Nil(t, os.WriteFile(tempFile, []byte("9499\n"), 0664))
	assert.Equal(t, 9499, util.ReadPidFile(tempFile))
	assert.Equal(t, 0, util.ReadPidFile(tempFile+".missing"))
}

func TestWritePidFile(t *testing.T) {
	tempFile := pidFilePath(t)
	require.Nil(t, util.WritePidFile(tempFile))
	assert.Equal(t, os.Getpid(), util.ReadPidFile(tempFile))
}

func TestAcquirePidFile(t *testing.T) {
	tempFile := pidFilePath(t)
	require.Nil(t, util.AcquirePidFile(tempFile))
	assert.Equal(t, os.Getpid(), util.ReadPidFile(tempFile))

	// Our own pid file can be re-acquired.
	require.Nil(t, util.AcquirePidFile(tempFile))

	// Parent process is running and is not us.
	require.Nil(t, os.WriteFile(tempFile, []byte(itoa(os.Getppid())), 0664))
	assert.NotNil(t, util.AcquirePidFile(tempFile))
}

func TestDeletePidFile(t *testing.T) {
	tempFile := pidFilePath(t)
	require.Nil(t, util.WritePidFile(tempFile))
	assert.True(t, util.FileExists(tempFile))
	require.Nil(t, util.DeletePidFile(tempFile))
	assert.False(t, util.FileExists(tempFile))
	assert.NotNil(t, util.DeletePidFile("/x.pid"))
}

func TestAgeOfPidFile(t *testing.T) {
	tempFile := pidFilePath(t)
	require.Nil(t, util.WritePidFile(tempFile))
	time.Sleep(400 * time.Millisecond)
	actual, err := util.AgeOfPidFile(tempFile)
	require.Nil(t, err)
	// Duration is in nanoseconds
	halfASecond := float64(500000000)
	assert.InDelta(t, float64(400*time.Millisecond), float64(actual), halfASecond)
}

func TestProcessIsRunning(t *testing.T) {
	assert.False(t, util.ProcessIsRunning(-999))
	assert.True(t, util.ProcessIsRunning(os.Getpid()))
}
