// Command mocksil builds the mock SIL as a loadable plugin:
//
//	go build -buildmode=plugin -o mocksil.so ./plugins/mocksil
package main

import (
	"github.com/webosose/bluetooth-sil-api/api/bluetooth"
	"github.com/webosose/bluetooth-sil-api/mock"
)

// CreateBluetoothSIL is looked up by the plugin loader.
func CreateBluetoothSIL(version int, capability bluetooth.IOCapability) bluetooth.SIL {
	return mock.CreateBluetoothSIL(version, capability)
}

func main() {}
