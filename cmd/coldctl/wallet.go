package main

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/keyfrost/coldctl/ledger"
)

var (
	walletFileFlag  string
	addrIndexFlag   uint32
	addrChangeFlag  bool
	addrDisplayFlag bool
)

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Register wallet policies and derive their addresses",
}

var walletRegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a wallet policy on the device",
	RunE: func(cmd *cobra.Command, args []string) error {
		policy, _, err := loadPolicyFile(walletFileFlag)
		if err != nil {
			return err
		}
		res, err := runSession(ledger.RegisterWallet{Policy: policy})
		if err != nil {
			return err
		}
		reg, ok := res.(ledger.WalletRegistered)
		if !ok {
			return fmt.Errorf("unexpected device result %T", res)
		}
		fmt.Printf("id:   %s\n", hex.EncodeToString(reg.ID[:]))
		fmt.Printf("hmac: %s\n", hex.EncodeToString(reg.HMAC[:]))
		return nil
	},
}

var walletAddressCmd = &cobra.Command{
	Use:   "address",
	Short: "Derive an address for a registered wallet policy",
	RunE: func(cmd *cobra.Command, args []string) error {
		policy, hmac, err := loadPolicyFile(walletFileFlag)
		if err != nil {
			return err
		}
		res, err := runSession(ledger.GetWalletAddress{
			Policy:       policy,
			HMAC:         hmac,
			Change:       addrChangeFlag,
			AddressIndex: addrIndexFlag,
			Display:      addrDisplayFlag,
		})
		if err != nil {
			return err
		}
		addr, ok := res.(ledger.Address)
		if !ok {
			return fmt.Errorf("unexpected device result %T", res)
		}
		fmt.Println(addr.Address)
		return nil
	},
}

func init() {
	walletCmd.PersistentFlags().StringVar(&walletFileFlag, "file", "", "wallet policy file (TOML)")
	walletCmd.MarkPersistentFlagRequired("file")

	walletAddressCmd.Flags().Uint32Var(&addrIndexFlag, "index", 0, "address index")
	walletAddressCmd.Flags().BoolVar(&addrChangeFlag, "change", false, "derive on the change branch")
	walletAddressCmd.Flags().BoolVar(&addrDisplayFlag, "display", false, "confirm the address on the device screen")

	walletCmd.AddCommand(walletRegisterCmd)
	walletCmd.AddCommand(walletAddressCmd)
}
