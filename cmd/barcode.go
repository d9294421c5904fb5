package cmd

import (
	"encoding/base64"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"inventory.GO/client"
	"inventory.GO/console"
)

var imageOut string

func writeImage(img []byte) error {
	if imageOut == "" {
		return fmt.Errorf("--out is required")
	}
	if err := os.WriteFile(imageOut, img, 0o644); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%d bytes)\n", imageOut, len(img))
	return nil
}

var barcodeCmd = &cobra.Command{
	Use:   "barcode",
	Short: "Generate, decode and validate barcodes through the service",
}

var barcodeGenerateCmd = &cobra.Command{
	Use:   "generate <text>",
	Short: "Write a Code128 barcode PNG",
	Args:  cobra.ExactArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		img, err := newClient().GenerateBarcodeImage(c.Context(), args[0])
		if err != nil {
			return err
		}
		return writeImage(img)
	},
}

var barcodeQRCmd = &cobra.Command{
	Use:   "qr <text>",
	Short: "Write a QR code PNG",
	Args:  cobra.ExactArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		img, err := newClient().GenerateQRCodeImage(c.Context(), args[0])
		if err != nil {
			return err
		}
		return writeImage(img)
	},
}

var barcodeLabelCmd = &cobra.Command{
	Use:   "label <id>",
	Short: "Write the printable QR label of an item",
	Args:  cobra.ExactArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		label, err := newClient().GetPrintableQRLabel(c.Context(), id)
		if err != nil {
			return err
		}
		fmt.Printf("#%d %s\n", label.ItemID, label.ItemName)
		return writeImage(label.Image)
	},
}

var decodeBase64 bool

var barcodeDecodeCmd = &cobra.Command{
	Use:   "decode <image>",
	Short: "Decode an image file and show the matching item",
	Args:  cobra.ExactArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		cl := newClient()
		var res client.DecodeResult
		if decodeBase64 {
			res, err = cl.DecodeBarcodeFromBase64(c.Context(), base64.StdEncoding.EncodeToString(data))
		} else {
			res, err = cl.DecodeBarcodeFromImage(c.Context(), data)
		}
		if err != nil {
			return err
		}
		if res.Empty() {
			fmt.Println("no barcode found")
			return nil
		}
		fmt.Println("decoded:", *res.DecodedText)
		if res.MatchedItem != nil {
			console.RenderItem(os.Stdout, *res.MatchedItem)
		}
		return nil
	},
}

var barcodeValidateCmd = &cobra.Command{
	Use:   "validate <code>",
	Short: "Check a barcode's format and whether an item uses it",
	Args:  cobra.ExactArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		v, err := newClient().ValidateBarcode(c.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("barcode %q valid=%t in use=%t\n", v.Barcode, v.Valid, v.Exists)
		if v.ExistingItem != nil {
			console.RenderItem(os.Stdout, *v.ExistingItem)
		}
		return nil
	},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the inventory service answers",
	RunE: func(c *cobra.Command, args []string) error {
		cl := newClient()
		if err := cl.Health(c.Context()); err != nil {
			return err
		}
		fmt.Printf("%s is up\n", cl.BaseURL())
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{barcodeGenerateCmd, barcodeQRCmd, barcodeLabelCmd} {
		c.Flags().StringVarP(&imageOut, "out", "o", "", "PNG file to write")
	}
	barcodeDecodeCmd.Flags().BoolVar(&decodeBase64, "base64", false, "send the image base64 encoded instead of as a file upload")
	barcodeCmd.AddCommand(barcodeGenerateCmd, barcodeQRCmd, barcodeLabelCmd, barcodeDecodeCmd, barcodeValidateCmd)
	Register(barcodeCmd)
	Register(healthCmd)
}
