package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/soypat/l9733/frame"
	"github.com/soypat/saleae"
	"github.com/soypat/saleae/analyzers"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "l9733analyze - Process binary Saleae digital data files corresponding to L9733 SPI transactions.\n\tUsage:\n")
		flag.PrintDefaults()
	}
	clk := flag.String("f-clk", "digital_0.bin", "Input filename: SPI clock data.")
	enable := flag.String("f-cs", "digital_1.bin", "Input filename: SPI CS/SS data.")
	mosi := flag.String("f-sdi", "digital_2.bin", "Input filename: host to chip SDI data.")
	miso := flag.String("f-sdo", "digital_3.bin", "Input filename: chip to host SDO data.")
	output := flag.String("o", "words.txt", "Output filename of decoded L9733 transactions.")
	flag.Parse()

	start := time.Now()
	if err := run(*clk, *enable, *mosi, *miso, *output); err != nil {
		log.Fatal(err.Error())
	}
	log.Println("finished in", time.Since(start))
}

func run(fclk, fenable, fmosi, fmiso, output string) error {
	clk, err := opendigital(fclk)
	if err != nil {
		return err
	}
	enable, err := opendigital(fenable)
	if err != nil {
		return err
	}
	mosi, err := opendigital(fmosi)
	if err != nil {
		return err
	}
	miso, err := opendigital(fmiso)
	if err != nil {
		return err
	}
	spi := analyzers.SPI{}
	txs, _ := spi.Scan(clk, enable, mosi, miso)
	fp, err := os.Create(output)
	if err != nil {
		return err
	}
	defer fp.Close()

	// Collapse runs of identical transactions into one line with a count.
	repeats := 1
	for i := 0; i < len(txs); i++ {
		tx := txs[i]
		for j := i + 1; j < len(txs); j++ {
			if !sameWords(txs[j], tx) {
				break
			}
			repeats++
			i = j
		}
		fmt.Fprintf(fp, "tx×%2d t=%f %s\n", repeats, tx.StartTime(), decodeTx(tx.SDO, tx.SDI))
		repeats = 1
	}
	return nil
}

func sameWords(a, b analyzers.TxSPI) bool {
	return string(a.SDO) == string(b.SDO) && string(a.SDI) == string(b.SDI)
}

// decodeTx renders one captured transaction: the input word the host
// shifted in and the diagnostic word the chip shifted back out.
func decodeTx(sdo, sdi []byte) string {
	var in string
	w, err := frame.ParseInputWord(sdo)
	if err != nil {
		in = fmt.Sprintf("in=?%x (%s)", sdo, err)
	} else {
		in = fmt.Sprintf("in=%-11s data=%#08b", w.Reg.String(), w.Data)
	}
	rep, err := frame.ParseDiagnostic(sdi)
	if err != nil {
		return fmt.Sprintf("%s  diag=?%x (%s)", in, sdi, err)
	}
	out := in + "  diag="
	for ch, f := range rep {
		if f == frame.NoFault {
			continue
		}
		out += fmt.Sprintf("[ch%d:%s]", ch+1, f.String())
	}
	if rep == (frame.FaultReport{}) {
		out += "ok"
	}
	return out
}

func opendigital(filename string) (*saleae.DigitalFile, error) {
	fp, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer fp.Close()
	df, err := saleae.ReadDigitalFile(fp)
	if err != nil {
		return nil, err
	}
	return df, nil
}
