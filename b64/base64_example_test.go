package b64

import "fmt"

func ExampleEncode() {
	encoded := Encode([]byte("Plain Text"))
	fmt.Println(encoded)
	// Output: UGxhaW4gVGV4dA==
}

func ExampleDecode() {
	decoded, err := Decode("UGxhaW4gVGV4dA==")
	if err != nil {
		fmt.Println(err)
	}
	fmt.Println(string(decoded))
	// Output: Plain Text
}

func ExampleSymbol() {
	s, ok := Symbol('a')
	fmt.Println(s, ok, string(Char(s)))
	// Output: 26 true a
}
