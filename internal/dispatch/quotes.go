package dispatch

var quotes = []string{
	"_If you don't know where you’re going, any road will take you there._",
	"_Oh, you can't help that. Most everyone's mad here. You may have noticed that I'm not all there myself._",
	"_I'm not crazy, my reality is just different than yours._",
	"_We're all mad here. Everyone in his own way._🐾",
	"_“Well, now that we have seen each other,” said the Unicorn, “if you'll believe in me, I'll believe in you. Is that a bargain?”_",
	"_How puzzling all these changes are! I'm never sure what I'm going to be, from one minute to another._",
	"_Imagination is the only weapon in the war against reality 😼._",
}
