package ledger

import (
	"encoding/binary"

	"github.com/btcsuite/btcd/chaincfg"

	"github.com/keyfrost/coldctl/ledger/apdu"
)

// Instruction classes and codes from the device's published command set.
const (
	claDashboard byte = 0xE0
	claSigner    byte = 0xE1
	claFramework byte = 0xF8

	insOpenApp              byte = 0xD8
	insGetExtendedPubkey    byte = 0x00
	insRegisterWallet       byte = 0x02
	insGetWalletAddress     byte = 0x03
	insGetMasterFingerprint byte = 0x05
	insContinue             byte = 0x01
)

const (
	appNameMainnet = "Bitcoin"
	appNameTestnet = "Bitcoin Test"
)

func appNameForNetwork(network *chaincfg.Params) string {
	if network.Net == chaincfg.MainNetParams.Net {
		return appNameMainnet
	}
	return appNameTestnet
}

// openApp addresses the dashboard, which launches the signer application
// named in the payload.
func openApp(network *chaincfg.Params) apdu.Command {
	return apdu.Command{
		Cla:  claDashboard,
		Ins:  insOpenApp,
		Data: []byte(appNameForNetwork(network)),
	}
}

func getMasterFingerprint() apdu.Command {
	return apdu.Command{Cla: claSigner, Ins: insGetMasterFingerprint}
}

// getExtendedPubkey carries a display-confirmation byte followed by the
// serialized derivation path.
func getExtendedPubkey(path DerivationPath, display bool) (apdu.Command, error) {
	serialized, err := path.Serialize()
	if err != nil {
		return apdu.Command{}, err
	}
	data := make([]byte, 0, 1+len(serialized))
	data = append(data, displayByte(display))
	data = append(data, serialized...)
	return apdu.Command{Cla: claSigner, Ins: insGetExtendedPubkey, Data: data}, nil
}

// registerWallet sends the length-prefixed policy serialization; the device
// pulls template and key preimages through the delegated store.
func registerWallet(policy *WalletPolicy) (apdu.Command, error) {
	serialized, err := policy.Serialize()
	if err != nil {
		return apdu.Command{}, err
	}
	data := make([]byte, 0, 1+len(serialized))
	data = append(data, byte(len(serialized)))
	data = append(data, serialized...)
	return apdu.Command{Cla: claSigner, Ins: insRegisterWallet, Data: data}, nil
}

// getWalletAddress payload: display | policy id | policy hmac | change |
// big-endian address index.
func getWalletAddress(cmd GetWalletAddress) (apdu.Command, error) {
	id, err := cmd.Policy.ID()
	if err != nil {
		return apdu.Command{}, err
	}
	data := make([]byte, 0, 1+len(id)+len(cmd.HMAC)+5)
	data = append(data, displayByte(cmd.Display))
	data = append(data, id[:]...)
	data = append(data, cmd.HMAC[:]...)
	data = append(data, changeByte(cmd.Change))
	data = binary.BigEndian.AppendUint32(data, cmd.AddressIndex)
	return apdu.Command{Cla: claSigner, Ins: insGetWalletAddress, Data: data}, nil
}

// continueInterrupted wraps a delegated store continuation payload into the
// framework frame resuming the interrupted command.
func continueInterrupted(data []byte) apdu.Command {
	return apdu.Command{Cla: claFramework, Ins: insContinue, Data: data}
}

func displayByte(display bool) byte {
	if display {
		return 0x01
	}
	return 0x00
}

func changeByte(change bool) byte {
	if change {
		return 0x01
	}
	return 0x00
}
